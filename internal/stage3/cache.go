package stage3

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	tiledb "github.com/TileDB-Inc/TileDB-Go"

	"github.com/cedarwud/orbit-engine/internal/model"
)

// ErrCreateCacheArray mirrors the corpus's per-concern sentinel-error
// convention for TileDB array construction failures.
var ErrCreateCacheArray = errors.New("error creating TileDB cache array")

const metadataRunIDKey = "pipeline_run_id"

// Cache stores one TileDB array per satellite under cacheDir, each keyed
// by the upstream pipeline run id so a later stage-3-only re-run with an
// unchanged stage-2 output can skip recomputation entirely (spec.md §4.4:
// "cache is invalidated if the previous stage's output timestamp is newer
// than cache").
type Cache struct {
	ctx *tiledb.Context
	dir string
}

// NewCache opens a TileDB context rooted at dir, creating it if absent.
func NewCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("stage3 cache: %w", err)
	}
	cfg, err := tiledb.NewConfig()
	if err != nil {
		return nil, fmt.Errorf("stage3 cache: %w", err)
	}
	defer cfg.Free()

	ctx, err := tiledb.NewContext(cfg)
	if err != nil {
		return nil, fmt.Errorf("stage3 cache: %w", err)
	}
	return &Cache{ctx: ctx, dir: dir}, nil
}

func (c *Cache) arrayURI(satelliteID int) string {
	return filepath.Join(c.dir, fmt.Sprintf("satellite_%d", satelliteID))
}

// Lookup returns a cached geodetic series for satelliteID if a TileDB
// array already exists there and its stored pipeline_run_id metadata
// matches runID. A miss (not found or stale) is not an error.
func (c *Cache) Lookup(satelliteID int, runID string) (model.GeodeticSeries, bool, error) {
	uri := c.arrayURI(satelliteID)
	if _, err := os.Stat(uri); err != nil {
		return model.GeodeticSeries{}, false, nil
	}

	array, err := tiledb.NewArray(c.ctx, uri)
	if err != nil {
		return model.GeodeticSeries{}, false, fmt.Errorf("stage3 cache: %w", err)
	}
	defer array.Free()

	if err := array.Open(tiledb.TILEDB_READ); err != nil {
		return model.GeodeticSeries{}, false, fmt.Errorf("stage3 cache: %w", err)
	}
	defer array.Close()

	storedRunID, ok := readStringMetadata(array, metadataRunIDKey)
	if !ok || storedRunID != runID {
		return model.GeodeticSeries{}, false, nil
	}
	nrows, ok := readIntMetadata(array, "row_count")
	if !ok {
		return model.GeodeticSeries{}, false, nil
	}

	series, err := c.readSeries(array, satelliteID, nrows)
	if err != nil {
		return model.GeodeticSeries{}, false, fmt.Errorf("stage3 cache: %w", err)
	}
	return series, true, nil
}

func readStringMetadata(array *tiledb.Array, key string) (string, bool) {
	dtype, _, value, err := array.GetMetadata(key)
	if err != nil || dtype != tiledb.TILEDB_STRING_UTF8 {
		return "", false
	}
	s, ok := value.(string)
	return s, ok
}

func readIntMetadata(array *tiledb.Array, key string) (int, bool) {
	dtype, _, value, err := array.GetMetadata(key)
	if err != nil || dtype != tiledb.TILEDB_INT64 {
		return 0, false
	}
	n, ok := value.(int64)
	return int(n), ok
}

func (c *Cache) readSeries(array *tiledb.Array, satelliteID int, nrows int) (model.GeodeticSeries, error) {
	if nrows == 0 {
		return model.GeodeticSeries{SatelliteID: satelliteID}, nil
	}

	query, err := tiledb.NewQuery(c.ctx, array)
	if err != nil {
		return model.GeodeticSeries{}, err
	}
	defer query.Free()

	if err := query.SetLayout(tiledb.TILEDB_ROW_MAJOR); err != nil {
		return model.GeodeticSeries{}, err
	}

	timestamps := make([]int64, nrows)
	lats := make([]float64, nrows)
	lons := make([]float64, nrows)
	alts := make([]float64, nrows)

	if _, err := query.SetDataBuffer("Timestamp", timestamps); err != nil {
		return model.GeodeticSeries{}, err
	}
	if _, err := query.SetDataBuffer("LatitudeDeg", lats); err != nil {
		return model.GeodeticSeries{}, err
	}
	if _, err := query.SetDataBuffer("LongitudeDeg", lons); err != nil {
		return model.GeodeticSeries{}, err
	}
	if _, err := query.SetDataBuffer("AltitudeKM", alts); err != nil {
		return model.GeodeticSeries{}, err
	}

	subarr, err := array.NewSubarray()
	if err != nil {
		return model.GeodeticSeries{}, err
	}
	defer subarr.Free()
	if err := subarr.AddRangeByName("__tiledb_rows", tiledb.MakeRange(uint64(0), uint64(nrows-1))); err != nil {
		return model.GeodeticSeries{}, err
	}
	if err := query.SetSubarray(subarr); err != nil {
		return model.GeodeticSeries{}, err
	}

	if err := query.Submit(); err != nil {
		return model.GeodeticSeries{}, err
	}

	points := make([]model.GeodeticPoint, nrows)
	for i := 0; i < nrows; i++ {
		points[i] = model.GeodeticPoint{
			Timestamp:    time.Unix(0, timestamps[i]).UTC(),
			LatitudeDeg:  lats[i],
			LongitudeDeg: lons[i],
			AltitudeKM:   alts[i],
		}
	}

	name, _ := readStringMetadata(array, "name")
	constellation, _ := readStringMetadata(array, "constellation")
	epochUnixNano, _ := readIntMetadata(array, "epoch_unix_nano")

	return model.GeodeticSeries{
		SatelliteID:   satelliteID,
		Name:          name,
		Constellation: model.Constellation(constellation),
		EpochDatetime: time.Unix(0, int64(epochUnixNano)).UTC(),
		Points:        points,
	}, nil
}

// Store persists a geodetic series as a dense TileDB array, tagged with
// runID for future invalidation checks.
func (c *Cache) Store(series model.GeodeticSeries, runID string) error {
	uri := c.arrayURI(series.SatelliteID)
	_ = os.RemoveAll(uri)

	if err := c.createArray(uri, len(series.Points)); err != nil {
		return errors.Join(ErrCreateCacheArray, err)
	}

	array, err := tiledb.NewArray(c.ctx, uri)
	if err != nil {
		return err
	}
	defer array.Free()

	if err := array.Open(tiledb.TILEDB_WRITE); err != nil {
		return err
	}
	defer array.Close()

	query, err := tiledb.NewQuery(c.ctx, array)
	if err != nil {
		return err
	}
	defer query.Free()

	if err := query.SetLayout(tiledb.TILEDB_ROW_MAJOR); err != nil {
		return err
	}

	n := len(series.Points)
	if n > 0 {
		timestamps := make([]int64, n)
		lats := make([]float64, n)
		lons := make([]float64, n)
		alts := make([]float64, n)
		for i, p := range series.Points {
			timestamps[i] = p.Timestamp.UnixNano()
			lats[i] = p.LatitudeDeg
			lons[i] = p.LongitudeDeg
			alts[i] = p.AltitudeKM
		}

		if _, err := query.SetDataBuffer("Timestamp", timestamps); err != nil {
			return err
		}
		if _, err := query.SetDataBuffer("LatitudeDeg", lats); err != nil {
			return err
		}
		if _, err := query.SetDataBuffer("LongitudeDeg", lons); err != nil {
			return err
		}
		if _, err := query.SetDataBuffer("AltitudeKM", alts); err != nil {
			return err
		}

		subarr, err := array.NewSubarray()
		if err != nil {
			return err
		}
		defer subarr.Free()

		if err := subarr.AddRangeByName("__tiledb_rows", tiledb.MakeRange(uint64(0), uint64(n-1))); err != nil {
			return err
		}
		if err := query.SetSubarray(subarr); err != nil {
			return err
		}

		if err := query.Submit(); err != nil {
			return err
		}
		if err := query.Finalize(); err != nil {
			return err
		}
	}

	if err := array.PutMetadata(metadataRunIDKey, runID); err != nil {
		return err
	}
	if err := array.PutMetadata("row_count", int64(n)); err != nil {
		return err
	}
	if err := array.PutMetadata("name", series.Name); err != nil {
		return err
	}
	if err := array.PutMetadata("constellation", string(series.Constellation)); err != nil {
		return err
	}
	return array.PutMetadata("epoch_unix_nano", series.EpochDatetime.UnixNano())
}

// createArray defines the dense, row-indexed schema: one row per sample
// instant, attributes Timestamp (int64 ns)/LatitudeDeg/LongitudeDeg/
// AltitudeKM (float64), zstd-compressed -- the same row-dimension +
// per-field-attribute layout the corpus uses for its dense Attitude array.
func (c *Cache) createArray(uri string, nrows int) error {
	if nrows < 1 {
		nrows = 1
	}

	domain, err := tiledb.NewDomain(c.ctx)
	if err != nil {
		return err
	}
	defer domain.Free()

	tileSize := uint64(math.Min(float64(nrows), 4096))
	dim, err := tiledb.NewDimension(c.ctx, "__tiledb_rows", tiledb.TILEDB_UINT64, []uint64{0, uint64(nrows - 1)}, tileSize)
	if err != nil {
		return err
	}
	defer dim.Free()

	filters, err := tiledb.NewFilterList(c.ctx)
	if err != nil {
		return err
	}
	defer filters.Free()
	zstd, err := tiledb.NewFilter(c.ctx, tiledb.TILEDB_FILTER_ZSTD)
	if err != nil {
		return err
	}
	defer zstd.Free()
	if err := filters.AddFilter(zstd); err != nil {
		return err
	}
	if err := dim.SetFilterList(filters); err != nil {
		return err
	}

	if err := domain.AddDimensions(dim); err != nil {
		return err
	}

	schema, err := tiledb.NewArraySchema(c.ctx, tiledb.TILEDB_DENSE)
	if err != nil {
		return err
	}
	defer schema.Free()

	if err := schema.SetDomain(domain); err != nil {
		return err
	}
	if err := schema.SetCellOrder(tiledb.TILEDB_ROW_MAJOR); err != nil {
		return err
	}
	if err := schema.SetTileOrder(tiledb.TILEDB_ROW_MAJOR); err != nil {
		return err
	}

	if err := addGeodeticAttributes(c.ctx, schema); err != nil {
		return err
	}

	array, err := tiledb.NewArray(c.ctx, uri)
	if err != nil {
		return err
	}
	defer array.Free()

	return array.Create(schema)
}
