package stage3

import (
	"errors"
	"reflect"

	tiledb "github.com/TileDB-Inc/TileDB-Go"
	stgpsr "github.com/yuin/stagparser"
)

var ErrCreateAttr = errors.New("stage3 cache: error creating TileDB attribute")

// geodeticSchema mirrors the cache's four stored attributes purely as a
// struct-tag schema source: its fields are never populated or read, only
// reflected over by stagparser to drive attribute/filter construction, the
// same struct-tag-to-TileDB-schema convention the corpus uses for its
// Attitude and SoundVelocityProfile arrays.
type geodeticSchema struct {
	Timestamp    int64   `tiledb:"dtype=int64,ftype=attr" filters:"zstd(level=16)"`
	LatitudeDeg  float64 `tiledb:"dtype=float64,ftype=attr" filters:"zstd(level=16)"`
	LongitudeDeg float64 `tiledb:"dtype=float64,ftype=attr" filters:"zstd(level=16)"`
	AltitudeKM   float64 `tiledb:"dtype=float64,ftype=attr" filters:"zstd(level=16)"`
}

// addGeodeticAttributes parses geodeticSchema's tiledb/filters tags and adds
// one TileDB attribute per exported field to schema, in declaration order.
func addGeodeticAttributes(ctx *tiledb.Context, schema *tiledb.ArraySchema) error {
	var s geodeticSchema
	values := reflect.ValueOf(&s).Elem()
	types := values.Type()

	filterDefs, err := stgpsr.ParseStruct(&s, "filters")
	if err != nil {
		return errors.Join(ErrCreateAttr, err)
	}
	tiledbDefs, err := stgpsr.ParseStruct(&s, "tiledb")
	if err != nil {
		return errors.Join(ErrCreateAttr, err)
	}

	for i := 0; i < values.NumField(); i++ {
		name := types.Field(i).Name

		fieldTiledbDefs := make(map[string]stgpsr.Definition, len(tiledbDefs[name]))
		for _, d := range tiledbDefs[name] {
			fieldTiledbDefs[d.Name()] = d
		}

		if err := createAttr(ctx, schema, name, filterDefs[name], fieldTiledbDefs); err != nil {
			return errors.Join(ErrCreateAttr, err)
		}
	}
	return nil
}

// createAttr builds one TileDB attribute from its parsed tiledb/filters
// struct-tag definitions, adapted from the corpus's reflection-driven
// CreateAttr to the dtype/filter vocabulary the cache actually uses
// (int64/float64, zstd only).
func createAttr(ctx *tiledb.Context, schema *tiledb.ArraySchema, fieldName string, filterDefs []stgpsr.Definition, tiledbDefs map[string]stgpsr.Definition) error {
	def, ok := tiledbDefs["dtype"]
	if !ok {
		return errors.New("dtype tag not found for field " + fieldName)
	}
	dtype, _ := def.Attribute("dtype")

	var tdbDtype tiledb.Datatype
	switch dtype {
	case "int64":
		tdbDtype = tiledb.TILEDB_INT64
	case "float64":
		tdbDtype = tiledb.TILEDB_FLOAT64
	default:
		return errors.New("unsupported dtype tag: " + dtype.(string))
	}

	attrFilters, err := tiledb.NewFilterList(ctx)
	if err != nil {
		return err
	}
	defer attrFilters.Free()

	for _, filter := range filterDefs {
		if filter.Name() != "zstd" {
			return errors.New("unsupported filter tag: " + filter.Name())
		}
		level, ok := filter.Attribute("level")
		if !ok {
			return errors.New("zstd level not defined for field " + fieldName)
		}
		zstd, err := tiledb.NewFilter(ctx, tiledb.TILEDB_FILTER_ZSTD)
		if err != nil {
			return err
		}
		defer zstd.Free()
		if err := zstd.SetOption(tiledb.TILEDB_COMPRESSION_LEVEL, int32(level.(int64))); err != nil {
			return err
		}
		if err := attrFilters.AddFilter(zstd); err != nil {
			return err
		}
	}

	attr, err := tiledb.NewAttribute(ctx, fieldName, tdbDtype)
	if err != nil {
		return err
	}
	if err := attr.SetFilterList(attrFilters); err != nil {
		return err
	}
	return schema.AddAttributes(attr)
}
