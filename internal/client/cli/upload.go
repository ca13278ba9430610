package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/serviya/serviya-go/internal/client/api"
)

// uploadPath is the endpoint receiving evidence attachments.
const uploadPath = "/api/solicitudes/evidencias/"

// Upload sends one or more files to the server as a single multipart
// request. A description is prompted for and travels as a form field.
func (a *App) Upload(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return errors.New("usage: upload <path>...")
	}

	description, err := getSimpleText(a.reader, "Enter description (optional)", a.out)
	if err != nil {
		return err
	}

	fields := map[string]string{}
	if description != "" {
		fields["descripcion"] = description
	}

	files := make(map[string]string, len(paths))
	for i, p := range paths {
		files[fmt.Sprintf("archivo_%d", i+1)] = p
	}

	body, err := a.api.Upload(ctx, http.MethodPost, uploadPath, fields, files)
	if err != nil {
		var verr *api.ValidationError
		if errors.As(err, &verr) {
			return fmt.Errorf("file rejected before upload: %w", verr)
		}
		return err
	}

	if id, ok := body["id"].(float64); ok {
		fmt.Fprintf(a.out, "Uploaded %d file(s), evidence id %d\n", len(paths), int64(id))
	} else {
		fmt.Fprintf(a.out, "Uploaded %d file(s)\n", len(paths))
	}
	return nil
}
