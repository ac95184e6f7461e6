package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strings"
)

// DefaultCLIBin is the internxt CLI binary looked up on PATH.
const DefaultCLIBin = "internxt"

// CLITransport drives the internxt command-line tool as a subprocess.
// The CLI addresses drive objects by server-assigned identifier, not by
// path, so every Ref passed in must carry a resolved ID (the drive root
// is the empty identifier).
type CLITransport struct {
	bin string
}

func NewCLITransport(bin string) *CLITransport {
	if bin == "" {
		bin = DefaultCLIBin
	}
	return &CLITransport{bin: bin}
}

func (t *CLITransport) PathAddressed() bool { return false }

// JSON shapes emitted by the CLI with --json.
type cliFolder struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type cliFile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

type cliListOutput struct {
	Folders []cliFolder `json:"folders"`
	Files   []cliFile   `json:"files"`
}

type cliFolderOutput struct {
	Folder cliFolder `json:"folder"`
}

type cliFileOutput struct {
	File cliFile `json:"file"`
}

func (t *CLITransport) List(ctx context.Context, dir Ref) ([]Entry, error) {
	args := []string{"list", "--json"}
	if dir.ID != "" {
		args = append(args, "--id", dir.ID)
	}

	out, err := t.run(ctx, "list", dir.Path, args)
	if err != nil {
		return nil, err
	}

	var listed cliListOutput
	if err := json.Unmarshal(out, &listed); err != nil {
		return nil, &TransportError{Op: "list", Target: dir.Path, Err: fmt.Errorf("decode output: %w", err)}
	}

	entries := make([]Entry, 0, len(listed.Folders)+len(listed.Files))
	for _, f := range listed.Folders {
		entries = append(entries, Entry{
			Name:  f.Name,
			IsDir: true,
			Path:  path.Join(dir.Path, f.Name),
			ID:    f.ID,
		})
	}
	for _, f := range listed.Files {
		entries = append(entries, Entry{
			Name: f.Name,
			Size: f.Size,
			Path: path.Join(dir.Path, f.Name),
			ID:   f.ID,
		})
	}
	return entries, nil
}

func (t *CLITransport) Mkdir(ctx context.Context, parent Ref, name string) (*Entry, error) {
	args := []string{"create-folder", "--name", name, "--json"}
	if parent.ID != "" {
		args = append(args, "--id", parent.ID)
	}

	created := path.Join(parent.Path, name)
	out, err := t.run(ctx, "mkdir", created, args)
	if err != nil {
		return nil, err
	}

	var folder cliFolderOutput
	if err := json.Unmarshal(out, &folder); err != nil {
		return nil, &TransportError{Op: "mkdir", Target: created, Err: fmt.Errorf("decode output: %w", err)}
	}

	return &Entry{
		Name:  name,
		IsDir: true,
		Path:  created,
		ID:    folder.Folder.ID,
	}, nil
}

func (t *CLITransport) Upload(ctx context.Context, localPath string, parent Ref, name string) (*Entry, error) {
	args := []string{"upload-file", "--file", localPath, "--json"}
	if parent.ID != "" {
		args = append(args, "--destination", parent.ID)
	}

	uploaded := path.Join(parent.Path, name)
	out, err := t.run(ctx, "upload", uploaded, args)
	if err != nil {
		return nil, err
	}

	var file cliFileOutput
	if err := json.Unmarshal(out, &file); err != nil {
		return nil, &TransportError{Op: "upload", Target: uploaded, Err: fmt.Errorf("decode output: %w", err)}
	}

	return &Entry{
		Name: name,
		Size: file.File.Size,
		Path: uploaded,
		ID:   file.File.ID,
	}, nil
}

func (t *CLITransport) Delete(ctx context.Context, target Ref) error {
	cmd := "trash-file"
	if target.IsDir {
		cmd = "trash-folder"
	}
	_, err := t.run(ctx, "delete", target.Path, []string{cmd, "--id", target.ID})
	return err
}

// Download fetches the file into destPath. The CLI only downloads into a
// directory under the file's original name, so the transfer goes through
// a scratch directory next to destPath and is renamed afterwards.
func (t *CLITransport) Download(ctx context.Context, target Ref, destPath string) error {
	scratch, err := os.MkdirTemp(filepath.Dir(destPath), ".internxt-dl-*")
	if err != nil {
		return &TransportError{Op: "download", Target: target.Path, Err: err}
	}
	defer os.RemoveAll(scratch)

	args := []string{"download-file", "--id", target.ID, "--directory", scratch}
	if _, err := t.run(ctx, "download", target.Path, args); err != nil {
		return err
	}

	names, err := os.ReadDir(scratch)
	if err != nil {
		return &TransportError{Op: "download", Target: target.Path, Err: err}
	}
	if len(names) != 1 {
		return &TransportError{Op: "download", Target: target.Path, Err: fmt.Errorf("expected one downloaded file, got %d", len(names))}
	}

	if err := os.Rename(filepath.Join(scratch, names[0].Name()), destPath); err != nil {
		return &TransportError{Op: "download", Target: target.Path, Err: err}
	}
	return nil
}

// run invokes the CLI and returns its stdout. A nonzero exit status becomes
// a TransportError carrying the trimmed stderr diagnostic.
func (t *CLITransport) run(ctx context.Context, op, target string, args []string) ([]byte, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, t.bin, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, &TransportError{Op: op, Target: target, Err: fmt.Errorf("%s: %s", t.bin, msg)}
	}
	return stdout.Bytes(), nil
}
