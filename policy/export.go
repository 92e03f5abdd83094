// Package policy writes planned policies in the plain-text exchange format:
// one action identifier per line, one line per declared state, in state order, no header.
package policy

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/zeu5/mdp-policy/types"
	"github.com/zeu5/mdp-policy/util"
)

// Export writes p to w
func Export(w io.Writer, p *types.Policy) error {
	return util.WriteLines(w, p.Lines()...)
}

// WriteFile writes p to path, creating parent directories
func WriteFile(path string, p *types.Policy) error {
	if err := util.WriteToFile(path, p.Lines()...); err != nil {
		return fmt.Errorf("write policy %s: %w", path, err)
	}
	return nil
}

// Path is the default policy file of the named experiment, <dir>/<name>.policy
func Path(dir, name string) string {
	return filepath.Join(dir, name+".policy")
}

// FileRecorder writes every recorded policy to path
func FileRecorder(path string) types.Recorder {
	return types.RecorderFunc(func(_ context.Context, _ string, result *types.Result) error {
		return WriteFile(path, result.Policy)
	})
}
