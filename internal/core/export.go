package core

import "fmt"

// Artifact is a serialized table ready for download or writing to disk.
type Artifact struct {
	Data      []byte
	FileName  string
	MIMEType  string
	Extension string
}

// Export serializes t in format. The artifact file name is left empty; use
// Convert to derive one from the source file.
func Export(t *Table, format Format) (*Artifact, error) {
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatCSV:
		data, err = encodeDelimited(t, ',')
	case FormatText:
		data, err = encodeDelimited(t, '\t')
	case FormatExcel:
		data, err = encodeExcel(t)
	case FormatJSON:
		data, err = encodeJSON(t)
	case FormatParquet:
		data, err = encodeParquet(t)
	default:
		return nil, fmt.Errorf("%w: %w: %v", ErrSerialization, ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSerialization, format, err)
	}
	return &Artifact{
		Data:      data,
		MIMEType:  format.MIMEType(),
		Extension: format.Extension(),
	}, nil
}

// Convert exports t and names the artifact after sourceName.
func Convert(t *Table, sourceName string, format Format) (*Artifact, error) {
	a, err := Export(t, format)
	if err != nil {
		return nil, err
	}
	a.FileName = ConvertFileName(sourceName, format)
	return a, nil
}
