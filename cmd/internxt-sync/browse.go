package main

import (
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var cyan = color.New(color.FgHiCyan).SprintFunc()

var lsCmd = &cobra.Command{
	Use:   "ls [RemotePath]",
	Short: "List a remote directory",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		remotePath := "/"
		if len(args) == 1 {
			remotePath = args[0]
		}

		entries, err := newStore().List(cmd.Context(), remotePath)
		if err != nil {
			return err
		}

		// Directories first, then files, both case-insensitively.
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].IsDir != entries[j].IsDir {
				return entries[i].IsDir
			}
			return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
		})

		for _, e := range entries {
			if e.IsDir {
				fmt.Printf("%s/\n", cyan(e.Name))
			} else {
				fmt.Printf("%s  %s\n", e.Name, humanize.Bytes(uint64(e.Size)))
			}
		}
		return nil
	},
}

var getCmd = &cobra.Command{
	Use:   "get <RemotePath> [LocalPath]",
	Short: "Download a remote file",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		remotePath := args[0]
		localPath := filepath.Base(path.Clean(remotePath))
		if len(args) == 2 {
			localPath = args[1]
		}

		if err := newStore().Download(cmd.Context(), remotePath, localPath); err != nil {
			return err
		}
		fmt.Printf("downloaded %s -> %s\n", remotePath, localPath)
		return nil
	},
}
