package linkcheck

import (
	stderrors "errors"
	"io/fs"
	"os"
)

// checkInternal reports ok when the resolved path exists as a file or directory.
func checkInternal(root string, link Link) Result {
	res := Result{Document: link.Document, Line: link.Line, Target: link.Target, Kind: KindInternal}

	path := ResolveInternal(root, link.Document, link.Target)
	_, err := os.Stat(path)
	switch {
	case err == nil:
		res.Status = StatusOK
	case stderrors.Is(err, fs.ErrNotExist):
		res.Status = StatusMissing
		res.Reason = "no such file: " + path
	default:
		res.Status = StatusMissing
		res.Reason = err.Error()
	}
	return res
}
