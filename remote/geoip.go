package remote

import (
	"net"

	"github.com/oschwald/maxminddb-golang"
	"github.com/pkg/errors"
)

// GeoIP resolves the country of an address from a MaxMind database. A nil
// *GeoIP resolves nothing.
type GeoIP struct {
	reader *maxminddb.Reader
}

type countryRecord struct {
	Country struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"country"`
}

// OpenGeoIP opens the MaxMind database at path
func OpenGeoIP(path string) (*GeoIP, error) {
	r, err := maxminddb.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "could not open geoip database")
	}
	return &GeoIP{reader: r}, nil
}

// Country returns the ISO country code of addr or "" if it is unknown
func (g *GeoIP) Country(addr string) string {
	if g == nil {
		return ""
	}
	ip := net.ParseIP(addr)
	if ip == nil {
		return ""
	}
	var rec countryRecord
	if err := g.reader.Lookup(ip, &rec); err != nil {
		return ""
	}
	return rec.Country.ISOCode
}

// Close closes the database
func (g *GeoIP) Close() error {
	if g == nil {
		return nil
	}
	return g.reader.Close()
}
