package types

import (
	"bytes"
	"database/sql/driver"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strings"
)

const (
	wkbPoint    = 1
	ewkbHasSRID = 0x20000000
)

// GeographyPoint is a WGS84 point stored in a PostGIS geography(Point, 4326)
// column.
type GeographyPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (g GeographyPoint) Validate() error {
	switch {
	case math.IsNaN(g.Lat) || math.Abs(g.Lat) > 90:
		return fmt.Errorf("latitude %v outside [-90, 90]", g.Lat)
	case math.IsNaN(g.Lng) || math.Abs(g.Lng) > 180:
		return fmt.Errorf("longitude %v outside [-180, 180]", g.Lng)
	}
	return nil
}

// GeoJSONPoint is the RFC 7946 form, used for the Mongo 2dsphere index.
type GeoJSONPoint struct {
	Type        string     `json:"type" bson:"type"`
	Coordinates [2]float64 `json:"coordinates" bson:"coordinates"`
}

func (g GeographyPoint) GeoJSON() GeoJSONPoint {
	return GeoJSONPoint{Type: "Point", Coordinates: [2]float64{g.Lng, g.Lat}}
}

// Value writes EWKT, which Postgres casts to geography on insert.
func (g GeographyPoint) Value() (driver.Value, error) {
	return fmt.Sprintf("SRID=4326;POINT(%f %f)", g.Lng, g.Lat), nil
}

// Scan reads EWKT/WKT text, hex EWKB (the Postgres text format for
// geography) or raw WKB.
func (g *GeographyPoint) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*g = GeographyPoint{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	case fmt.Stringer:
		raw = []byte(v.String())
	default:
		return fmt.Errorf("geography: cannot scan %T", src)
	}

	text := strings.TrimSpace(string(raw))
	upper := strings.ToUpper(text)
	switch {
	case strings.HasPrefix(upper, "SRID=") || strings.HasPrefix(upper, "POINT"):
		return g.parseWKT(text)
	case looksHex(text):
		decoded, err := hex.DecodeString(text)
		if err != nil {
			return fmt.Errorf("geography: %w", err)
		}
		return g.parseWKB(decoded)
	}
	return g.parseWKB(raw)
}

// looksHex rejects anything shorter than a hex-encoded 2D point.
func looksHex(s string) bool {
	if len(s) < 42 || len(s)%2 == 1 {
		return false
	}
	return strings.Trim(strings.ToLower(s), "0123456789abcdef") == ""
}

func (g *GeographyPoint) parseWKT(text string) error {
	if _, rest, ok := strings.Cut(text, ";"); ok {
		text = rest
	}
	var lng, lat float64
	compact := strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(text)), "POINT (", "POINT(")
	if _, err := fmt.Sscanf(compact, "POINT(%g %g)", &lng, &lat); err != nil {
		return fmt.Errorf("geography: bad WKT %q: %w", text, err)
	}
	g.Lng, g.Lat = lng, lat
	return nil
}

func (g *GeographyPoint) parseWKB(b []byte) error {
	if len(b) < 21 {
		return errors.New("geography: WKB too short")
	}
	var order binary.ByteOrder = binary.LittleEndian
	switch b[0] {
	case 0:
		order = binary.BigEndian
	case 1:
	default:
		return fmt.Errorf("geography: bad byte order marker %d", b[0])
	}

	r := bytes.NewReader(b[1:])
	var kind uint32
	if err := binary.Read(r, order, &kind); err != nil {
		return err
	}
	if kind&ewkbHasSRID != 0 {
		var srid uint32
		if err := binary.Read(r, order, &srid); err != nil {
			return err
		}
		kind &^= ewkbHasSRID
	}
	if kind != wkbPoint {
		return fmt.Errorf("geography: geometry type %d is not a point", kind)
	}
	var xy [2]float64
	if err := binary.Read(r, order, &xy); err != nil {
		return fmt.Errorf("geography: WKB too short: %w", err)
	}
	g.Lng, g.Lat = xy[0], xy[1]
	return nil
}
