package pointcloud

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/chenzhekl/goply"
	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// NewFromFile returns a pointcloud read in from the given file.
func NewFromFile(fn string, logger golog.Logger) (cloud *PointCloud, err error) {
	switch filepath.Ext(fn) {
	case ".ply":
		var f *os.File
		//nolint:gosec
		f, err = os.Open(fn)
		if err != nil {
			return nil, err
		}
		defer func() {
			err = multierr.Combine(err, f.Close())
		}()
		cloud, err = ReadPLY(f)
		if err != nil {
			return nil, err
		}
		logger.Debugf("read %d points from %q", cloud.Size(), fn)
		return cloud, nil
	default:
		return nil, errors.Errorf("do not know how to read file %q", fn)
	}
}

// ReadPLY reads a point cloud from a PLY stream. Only vertex positions are kept.
func ReadPLY(r io.Reader) (*PointCloud, error) {
	ply := goply.New(r)
	vertices := ply.Elements("vertex")
	cloud := New()
	for _, v := range vertices {
		x, okx := vertexCoord(v, "x")
		y, oky := vertexCoord(v, "y")
		z, okz := vertexCoord(v, "z")
		if !okx || !oky || !okz {
			return nil, errors.New("ply vertex is missing a position property")
		}
		cloud.Add(r3.Vector{X: x, Y: y, Z: z})
	}
	return cloud, nil
}

// vertexCoord extracts one coordinate of a parsed vertex. Single precision properties
// are surfaced by the parser as float32 and double precision ones as float64.
func vertexCoord(vertex map[string]interface{}, name string) (float64, bool) {
	switch c := vertex[name].(type) {
	case float64:
		return c, true
	case float32:
		return float64(c), true
	}
	return 0, false
}

// WritePLY writes the cloud to the stream as an ascii PLY file of vertex positions.
func WritePLY(w io.Writer, cloud *PointCloud) error {
	header := "ply\nformat ascii 1.0\nelement vertex %d\nproperty double x\nproperty double y\nproperty double z\nend_header\n"
	if _, err := fmt.Fprintf(w, header, cloud.Size()); err != nil {
		return err
	}
	for i := 0; i < cloud.Size(); i++ {
		p := cloud.At(i)
		if _, err := fmt.Fprintf(w, "%g %g %g\n", p.X, p.Y, p.Z); err != nil {
			return err
		}
	}
	return nil
}
