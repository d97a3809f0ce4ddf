package filetype

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// FileTypeInfo contains detected file type information
type FileTypeInfo struct {
	MIMEType    string
	Extension   string
	Format      string // jpeg, png, gif, bmp, tiff
	Supported   bool
	Description string
	Misnamed    bool // the name's extension disagrees with the content
}

// IsJPEG reports whether the payload can be embedded without re-encoding.
func (i *FileTypeInfo) IsJPEG() bool { return i != nil && i.Format == "jpeg" }

// Detector handles file type detection using magic bytes
type Detector struct{}

// New creates a new file type detector
func New() *Detector {
	return &Detector{}
}

// Detect sniffs data by magic bytes. name is only used to flag a file whose
// extension does not match its content; the content always wins.
func (d *Detector) Detect(name string, data []byte) *FileTypeInfo {
	info := d.fromMIME(mimetype.Detect(data))
	ext := strings.ToLower(filepath.Ext(name))
	info.Misnamed = info.Supported && !sameFormat(ext, info.Extension)
	return info
}

func (d *Detector) fromMIME(mtype *mimetype.MIME) *FileTypeInfo {
	info := &FileTypeInfo{
		MIMEType:  mtype.String(),
		Extension: mtype.Extension(),
	}
	d.classify(info)
	return info
}

// classify maps the sniffed MIME type onto the decoders we register
func (d *Detector) classify(info *FileTypeInfo) {
	switch info.MIMEType {
	case "image/jpeg":
		info.Format = "jpeg"
		info.Description = "JPEG image"
	case "image/png":
		info.Format = "png"
		info.Description = "PNG image"
	case "image/gif":
		info.Format = "gif"
		info.Description = "GIF image"
	case "image/bmp", "image/x-ms-bmp":
		info.Format = "bmp"
		info.Description = "BMP image"
	case "image/tiff":
		info.Format = "tiff"
		info.Description = "TIFF image"
	default:
		info.Description = fmt.Sprintf("Unsupported file type: %s", info.MIMEType)
		return
	}
	info.Supported = true
}

func sameFormat(ext, detected string) bool {
	switch ext {
	case ".jpg", ".jpeg":
		return detected == ".jpg" || detected == ".jpeg"
	case ".tif", ".tiff":
		return detected == ".tif" || detected == ".tiff"
	}
	return ext == detected
}
