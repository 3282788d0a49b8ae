package widget

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"chatwidget/types"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

const MaxAttachmentSize = 16 << 20

var allowedExtensions = map[string]bool{
	".pdf":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".tiff": true,
}

func init() {
	api.DisableConfigDir()
}

// ValidateAttachment checks a file the user picked before it is held for the
// next send. PDFs must parse; images must sniff as images.
func ValidateAttachment(name string, data []byte) (*types.Attachment, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if !allowedExtensions[ext] {
		return nil, fmt.Errorf("%w: %q", ErrAttachmentType, ext)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: file is empty", ErrAttachmentType)
	}
	if len(data) > MaxAttachmentSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrAttachmentTooLarge, len(data))
	}

	mt := mimetype.Detect(data)
	att := &types.Attachment{
		Name:        filepath.Base(name),
		ContentType: mt.String(),
		Size:        len(data),
		Data:        data,
	}

	if ext == ".pdf" {
		if !mt.Is("application/pdf") {
			return nil, fmt.Errorf("%w: %s is not a pdf", ErrAttachmentType, mt.String())
		}
		pages, err := api.PageCount(bytes.NewReader(data), model.NewDefaultConfiguration())
		if err != nil {
			return nil, fmt.Errorf("%w: unreadable pdf: %v", ErrAttachmentType, err)
		}
		att.Pages = pages
		return att, nil
	}

	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, fmt.Errorf("%w: %s is not an image", ErrAttachmentType, mt.String())
	}
	return att, nil
}
