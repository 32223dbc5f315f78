package export

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	shp "github.com/jonas-p/go-shp"
)

const (
	// maxFieldName is the DBF limit on attribute names.
	maxFieldName = 10
	// maxFieldSize is the DBF limit on character field width.
	maxFieldSize = 254

	// WGS84 is the coordinate system written to the .prj sidecar.
	WGS84 = `GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]]`
)

// feature is one row prepared for the shapefile writer.
type feature struct {
	shape      shp.Shape
	layer      shp.ShapeType
	attributes []string
}

// writeShapefile writes .shp/.shx/.dbf plus .prj and .cpg sidecars.
//
// The layer type follows the first parsed geometry. Rows whose geometry is
// missing, unparsable or of another family are written with an empty shape.
// Without a geometry column every row is a NULL record.
func (e *Exporter) writeShapefile(path string, headers []string, rows [][]any, res *Result) error {
	if !strings.HasSuffix(strings.ToLower(path), ".shp") {
		path += ".shp"
	}
	base := path[:len(path)-len(".shp")]

	geomIdx := GeometryColumn(headers)
	fields, attrIdx := attributeFields(headers, rows, geomIdx)

	features := make([]feature, len(rows))
	for i, row := range rows {
		f := &features[i]
		f.attributes = make([]string, len(attrIdx))
		for j, idx := range attrIdx {
			f.attributes[j] = padField(FormatValue(row[idx]), int(fields[j].Size))
		}

		if geomIdx < 0 {
			continue
		}
		raw := FormatValue(row[geomIdx])
		if strings.TrimSpace(raw) == "" {
			continue
		}
		g, err := ParseWKT(raw)
		if err == nil {
			f.shape, f.layer, err = toShape(g)
		}
		if err != nil {
			e.opts.Logf("export: row %d: %s is not valid WKT: %v", i+1, headers[geomIdx], err)
			f.shape = nil
		}
	}

	layer := layerType(features, geomIdx >= 0)
	box, nulls := normalizeFeatures(features, layer, e.opts.Logf)
	res.NullGeometries = nulls

	w, err := shp.Create(path, layer)
	if err != nil {
		return fmt.Errorf("failed to create shapefile: %w", err)
	}
	closed := false
	defer func() {
		if !closed {
			w.Close()
		}
	}()

	if len(fields) > 0 {
		if err := w.SetFields(fields); err != nil {
			return fmt.Errorf("failed to set fields: %w", err)
		}
	}

	for _, f := range features {
		shape := f.shape
		if shape == nil {
			shape = emptyShape(layer, box)
		}
		n := int(w.Write(shape))
		for j, value := range f.attributes {
			if err := w.WriteAttribute(n, j, value); err != nil {
				return fmt.Errorf("failed to write attribute %s of row %d: %w", fields[j], n+1, err)
			}
		}
	}

	w.Close()
	closed = true

	if err := fixDbfName(base); err != nil {
		return err
	}
	if err := verifyShapefile(path, base, len(features)); err != nil {
		return err
	}
	if err := os.WriteFile(base+".prj", []byte(WGS84), 0o644); err != nil {
		return fmt.Errorf("failed to write projection: %w", err)
	}
	if err := os.WriteFile(base+".cpg", []byte("UTF-8"), 0o644); err != nil {
		return fmt.Errorf("failed to write code page: %w", err)
	}

	res.Path = path
	res.Files = []string{path, base + ".shx", base + ".dbf", base + ".prj", base + ".cpg"}
	return nil
}

// attributeFields builds one character field per non-geometry column, sized to
// the longest value. Names cut to the DBF limit that clash with another field
// get a numeric suffix (ParcelNu_1); duplicate source headers are kept.
func attributeFields(headers []string, rows [][]any, geomIdx int) ([]shp.Field, []int) {
	var fields []shp.Field
	var idx []int
	names := fieldNames(headers, geomIdx)
	for i := range headers {
		if i == geomIdx {
			continue
		}
		size := 1
		for _, row := range rows {
			if n := len(FormatValue(row[i])); n > size {
				size = n
			}
		}
		if size > maxFieldSize {
			size = maxFieldSize
		}
		fields = append(fields, shp.StringField(names[i], uint8(size)))
		idx = append(idx, i)
	}
	return fields, idx
}

// fieldNames returns the DBF name of each header. DBF names compare
// case-insensitively.
func fieldNames(headers []string, geomIdx int) []string {
	names := make([]string, len(headers))
	used := make(map[string]bool)
	for i, h := range headers {
		if i != geomIdx && len(h) <= maxFieldName {
			names[i] = h
			used[strings.ToUpper(h)] = true
		}
	}

	for i, h := range headers {
		if i == geomIdx || len(h) <= maxFieldName {
			continue
		}
		name := truncateBytes(h, maxFieldName)
		for n := 1; used[strings.ToUpper(name)]; n++ {
			suffix := fmt.Sprintf("_%d", n)
			name = truncateBytes(h, maxFieldName-len(suffix)) + suffix
		}
		names[i] = name
		used[strings.ToUpper(name)] = true
	}
	return names
}

// layerType picks the family of the first parsed geometry. A point layer with
// gaps or multipoints becomes a multipoint layer.
func layerType(features []feature, hasGeometry bool) shp.ShapeType {
	if !hasGeometry {
		return shp.NULL
	}

	layer := shp.ShapeType(shp.NULL)
	for _, f := range features {
		if f.shape != nil {
			layer = f.layer
			break
		}
	}
	if layer == shp.NULL {
		return shp.POLYGON
	}

	if layer == shp.POINT {
		for _, f := range features {
			if f.shape == nil || f.layer == shp.MULTIPOINT {
				return shp.MULTIPOINT
			}
		}
	}
	return layer
}

// normalizeFeatures drops shapes that do not fit layer and returns the extent
// of the remaining ones and the number of null rows.
func normalizeFeatures(features []feature, layer shp.ShapeType, logf func(string, ...any)) (shp.Box, int) {
	var box shp.Box
	first := true
	nulls := 0

	for i := range features {
		f := &features[i]
		if f.shape != nil && layer == shp.MULTIPOINT && f.layer == shp.POINT {
			f.shape = asMultiPoint(f.shape)
			f.layer = shp.MULTIPOINT
		}
		if f.shape != nil && f.layer != layer {
			logf("export: row %d: %s geometry does not fit %s layer, written without geometry",
				i+1, shapeTypeName(f.layer), shapeTypeName(layer))
			f.shape = nil
		}
		if f.shape == nil {
			nulls++
			continue
		}
		if first {
			box = f.shape.BBox()
			first = false
		} else {
			box.Extend(f.shape.BBox())
		}
	}
	if layer == shp.NULL {
		nulls = 0
	}
	return box, nulls
}

// verifyShapefile checks the written files against their headers and the
// expected record count. go-shp v0.1.1 does not report write errors, so a
// short write only shows up as a size mismatch.
func verifyShapefile(path, base string, records int) error {
	shpSize, err := fileSize(path)
	if err != nil {
		return err
	}
	var header [28]byte
	if err := readAt(path, header[:], 0); err != nil {
		return err
	}
	if declared := int64(binary.BigEndian.Uint32(header[24:28])) * 2; declared != shpSize {
		return fmt.Errorf("incomplete shapefile %s: header declares %d bytes, file has %d", path, declared, shpSize)
	}

	shx := base + ".shx"
	shxSize, err := fileSize(shx)
	if err != nil {
		return err
	}
	if want := int64(100 + 8*records); shxSize != want {
		return fmt.Errorf("incomplete index %s: %d bytes for %d records, want %d", shx, shxSize, records, want)
	}
	if records > 0 {
		var last [8]byte
		if err := readAt(shx, last[:], shxSize-8); err != nil {
			return err
		}
		offset := int64(binary.BigEndian.Uint32(last[0:4])) * 2
		length := int64(binary.BigEndian.Uint32(last[4:8])) * 2
		if end := offset + 8 + length; end != shpSize {
			return fmt.Errorf("incomplete shapefile %s: last record ends at %d, file has %d bytes", path, end, shpSize)
		}
	}

	dbf := base + ".dbf"
	dbfSize, err := fileSize(dbf)
	if err != nil {
		return err
	}
	var dbfHeader [12]byte
	if err := readAt(dbf, dbfHeader[:], 0); err != nil {
		return err
	}
	count := int64(binary.LittleEndian.Uint32(dbfHeader[4:8]))
	headerLen := int64(binary.LittleEndian.Uint16(dbfHeader[8:10]))
	recordLen := int64(binary.LittleEndian.Uint16(dbfHeader[10:12]))
	if count != int64(records) {
		return fmt.Errorf("incomplete attribute table %s: %d records, want %d", dbf, count, records)
	}
	if want := headerLen + count*recordLen; dbfSize < want {
		return fmt.Errorf("incomplete attribute table %s: %d bytes, want at least %d", dbf, dbfSize, want)
	}
	return nil
}

func fileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("failed to check %s: %w", path, err)
	}
	return info.Size(), nil
}

func readAt(path string, buf []byte, off int64) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to check %s: %w", path, err)
	}
	defer f.Close()
	if _, err := f.ReadAt(buf, off); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("incomplete file %s: shorter than its header", path)
		}
		return fmt.Errorf("failed to check %s: %w", path, err)
	}
	return nil
}

// fixDbfName moves "<base>dbf" to "<base>.dbf". go-shp v0.1.1 drops the dot
// when it creates the attribute table.
func fixDbfName(base string) error {
	if _, err := os.Stat(base + "dbf"); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := os.Rename(base+"dbf", base+".dbf"); err != nil {
		return fmt.Errorf("failed to rename attribute table: %w", err)
	}
	return nil
}

// padField fits value into a character field of size bytes.
func padField(value string, size int) string {
	value = truncateBytes(value, size)
	if n := size - len(value); n > 0 {
		value += strings.Repeat(" ", n)
	}
	return value
}

// truncateBytes cuts s to at most n bytes without splitting a rune.
func truncateBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func shapeTypeName(t shp.ShapeType) string {
	switch t {
	case shp.NULL:
		return "NULL"
	case shp.POINT:
		return "POINT"
	case shp.POLYLINE:
		return "POLYLINE"
	case shp.POLYGON:
		return "POLYGON"
	case shp.MULTIPOINT:
		return "MULTIPOINT"
	default:
		return fmt.Sprintf("type %d", int32(t))
	}
}
