package widget

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 32)...)

func TestValidateAttachment(t *testing.T) {
	att, err := ValidateAttachment("dir/Chart.PNG", pngBytes)
	require.NoError(t, err)
	assert.Equal(t, "Chart.PNG", att.Name)
	assert.Equal(t, "image/png", att.ContentType)
	assert.Equal(t, len(pngBytes), att.Size)

	_, err = ValidateAttachment("run.exe", pngBytes)
	assert.ErrorIs(t, err, ErrAttachmentType)

	_, err = ValidateAttachment("empty.png", nil)
	assert.ErrorIs(t, err, ErrAttachmentType)

	_, err = ValidateAttachment("huge.png", make([]byte, MaxAttachmentSize+1))
	assert.ErrorIs(t, err, ErrAttachmentTooLarge)

	_, err = ValidateAttachment("fake.pdf", pngBytes)
	assert.ErrorIs(t, err, ErrAttachmentType)

	_, err = ValidateAttachment("broken.pdf", []byte("%PDF-1.7\nthis is not really a pdf"))
	assert.ErrorIs(t, err, ErrAttachmentType)

	_, err = ValidateAttachment("text.jpg", []byte("plain text pretending"))
	assert.ErrorIs(t, err, ErrAttachmentType)
}
