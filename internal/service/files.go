package service

import (
	"path/filepath"
	"strings"

	"github.com/iliyamo/movie-catalog/internal/validation"
)

// File is one uploaded file already written to local disk.
type File struct {
	Path string // temporary local path
	Name string // client-supplied file name
	Size int64
}

var (
	posterExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true}
	videoExts  = map[string]bool{".mp4": true, ".mov": true, ".avi": true}
)

// checkFiles enforces the file rules before anything is uploaded.  On
// create both files are required; on update each is optional.  At most one
// file per field is accepted.
func checkFiles(in MovieInput, required bool) error {
	if required && (len(in.Posters) == 0 || len(in.Videos) == 0) {
		return ErrMissingFiles
	}
	verr := &validation.RequestValidationError{}
	checkField(verr, "poster", in.Posters, posterExts, "poster must be a jpg, jpeg or png image")
	checkField(verr, "video", in.Videos, videoExts, "video must be an mp4, mov or avi file")
	if verr.Empty() {
		return nil
	}
	return &ValidationError{Details: verr}
}

func checkField(verr *validation.RequestValidationError, field string, files []File, exts map[string]bool, msg string) {
	if len(files) > 1 {
		verr.Add(field, "max", "only one "+field+" file is allowed")
		return
	}
	for _, f := range files {
		if !exts[strings.ToLower(filepath.Ext(f.Name))] {
			verr.Add(field, "ext", msg)
		}
	}
}
