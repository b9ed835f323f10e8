package dashboard

import (
	"context"
	"encoding/base64"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"dashkit/domain/callback"
	"dashkit/internal/errors"
	"dashkit/internal/handy"
)

// ToVal returns a handler that always yields v
func ToVal(v any) callback.Handler {
	return func(context.Context, *callback.Inputs) (any, error) {
		return v, nil
	}
}

// Fun passes handlers through and turns any other value into a constant handler
func Fun(funOrVal any) callback.Handler {
	switch h := funOrVal.(type) {
	case callback.Handler:
		return h
	case func(context.Context, *callback.Inputs) (any, error):
		return h
	default:
		return ToVal(funOrVal)
	}
}

// GetChanges returns the keys that changed since the previous invocation
func GetChanges(in *callback.Inputs) []string {
	return in.Changes()
}

// GetRows reads a data table registered with OnRows or RowsOf. With selected, only the
// selected rows are returned. Anything malformed yields an empty frame.
func GetRows(in *callback.Inputs, id string, selected bool) *handy.Frame {
	rowsVal, okRows := in.Get(id + ".rows")
	indexVal, okIndex := in.Get(id + ".selected_row_indices")
	if !okRows || !okIndex {
		return handy.NewFrame()
	}

	raw, ok := rowsVal.([]any)
	if !ok {
		return handy.NewFrame()
	}
	records := make([]map[string]any, 0, len(raw))
	for _, r := range raw {
		rec, ok := r.(map[string]any)
		if !ok {
			return handy.NewFrame()
		}
		records = append(records, rec)
	}
	frame := handy.FrameFromRecords(records)
	if !selected {
		return frame
	}

	list, ok := indexVal.([]any)
	if !ok {
		return handy.NewFrame()
	}
	indices := make([]int, 0, len(list))
	for _, v := range list {
		switch i := v.(type) {
		case float64:
			indices = append(indices, int(i))
		case int:
			indices = append(indices, i)
		default:
			return handy.NewFrame()
		}
	}
	taken, err := frame.Take(indices)
	if err != nil {
		return handy.NewFrame()
	}
	return taken
}

// UploadedFile is one file delivered by an Upload component
type UploadedFile struct {
	Name         string
	Content      string // data URL: "data:<type>;base64,<payload>"
	LastModified float64
}

// GetUpload reads the files of an Upload component registered with OnUpload
func GetUpload(in *callback.Inputs, id string) []UploadedFile {
	names := asSlice(in.Value(id + ".filename"))
	contents := asSlice(in.Value(id + ".contents"))
	dates := asSlice(in.Value(id + ".last_modified"))
	if names == nil || contents == nil || dates == nil {
		return nil
	}

	n := min(len(names), len(contents), len(dates))
	files := make([]UploadedFile, 0, n)
	for i := 0; i < n; i++ {
		name, _ := names[i].(string)
		content, _ := contents[i].(string)
		modified, _ := dates[i].(float64)
		files = append(files, UploadedFile{Name: name, Content: content, LastModified: modified})
	}
	return files
}

// asSlice accepts the multi-file list form as well as a single value
func asSlice(v any) []any {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		return t
	default:
		return []any{t}
	}
}

// SaveFile decodes an uploaded file into folder and reports whether it now exists.
// Only the base name of the upload is used.
func SaveFile(folder string, file UploadedFile) (bool, error) {
	_, payload, ok := strings.Cut(file.Content, ",")
	if !ok {
		return false, errors.InvalidInput("upload content is not a data URL")
	}
	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return false, errors.Newf(errors.CodeInvalidInput, "upload content is not base64: %v", err)
	}

	name := filepath.Base(file.Name)
	if name == "." || name == string(filepath.Separator) || name == "" {
		return false, errors.InvalidInput("upload has no file name")
	}
	path := filepath.Join(folder, name)
	if err := os.WriteFile(path, decoded, 0o644); err != nil {
		return false, errors.Wrapf(err, "failed to save upload %s", name)
	}

	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular(), nil
}

// GetURL returns the unescaped page path tracked under URLComponent, or "/"
func GetURL(in *callback.Inputs) string {
	raw, ok := in.Value(URLComponent).(string)
	if !ok || raw == "" {
		return "/"
	}
	path, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return path
}

type userKey struct{}

// WithUser stores the authenticated user name in ctx
func WithUser(ctx context.Context, user string) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// GetUser returns the basic-auth user of the request that triggered the callback
func GetUser(ctx context.Context) string {
	user, _ := ctx.Value(userKey{}).(string)
	return user
}
