package seeder

import (
	"archive/zip"
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/alexivanou/forecast-widget/internal/config"
	"github.com/alexivanou/forecast-widget/internal/model"
)

// GeoNames dump file names
const (
	CountriesFile = "countryInfo.txt"
	CitiesFile    = "cities15000.txt"
	CitiesZip     = "cities15000.zip"
)

// Parser parses GeoNames data files into places
type Parser struct {
	dataDir       string
	minPopulation int
}

// NewParser creates a new parser instance with config
func NewParser(seederCfg config.SeederConfig) *Parser {
	return &Parser{
		dataDir:       seederCfg.DataDir,
		minPopulation: seederCfg.MinPopulation,
	}
}

// Available reports whether the data directory holds both dumps.
func (p *Parser) Available() bool {
	if _, err := os.Stat(filepath.Join(p.dataDir, CountriesFile)); err != nil {
		return false
	}
	for _, name := range []string{CitiesZip, CitiesFile} {
		if _, err := os.Stat(filepath.Join(p.dataDir, name)); err == nil {
			return true
		}
	}
	return false
}

// ParseCountries parses countryInfo.txt
func (p *Parser) ParseCountries() ([]model.Country, error) {
	file, err := os.Open(filepath.Join(p.dataDir, CountriesFile))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", CountriesFile, err)
	}
	defer file.Close()

	return parseCountries(file)
}

func parseCountries(r io.Reader) ([]model.Country, error) {
	var countries []model.Country
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}

		// ISO, ISO3, ISO-Numeric, fips, Country, ...
		parts := strings.Split(line, "\t")
		if len(parts) < 5 {
			continue
		}

		code := parts[0]
		name := parts[4]
		if code != "" && name != "" {
			countries = append(countries, model.Country{Code: code, Name: name})
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", CountriesFile, err)
	}
	return countries, nil
}

// ParsePlaces parses the cities dump, zipped or plain, and filters by population
func (p *Parser) ParsePlaces() ([]model.Place, error) {
	zipPath := filepath.Join(p.dataDir, CitiesZip)
	if _, err := os.Stat(zipPath); err == nil {
		return p.parsePlacesFromZip(zipPath)
	}

	file, err := os.Open(filepath.Join(p.dataDir, CitiesFile))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", CitiesFile, err)
	}
	defer file.Close()

	return p.parsePlacesFromReader(file)
}

func (p *Parser) parsePlacesFromZip(zipPath string) ([]model.Place, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open zip: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		if !strings.HasSuffix(f.Name, ".txt") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open file in zip: %w", err)
		}
		defer rc.Close()
		return p.parsePlacesFromReader(rc)
	}

	return nil, fmt.Errorf("no txt file found in zip")
}

// parsePlacesFromReader reads the GeoNames "geoname" table layout:
// id, name, asciiname, alternatenames, lat, lon, feature class, feature code,
// country code, cc2, admin1..4, population, elevation, dem, timezone, modified.
func (p *Parser) parsePlacesFromReader(reader io.Reader) ([]model.Place, error) {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var places []model.Place

	for scanner.Scan() {
		parts := strings.Split(scanner.Text(), "\t")
		if len(parts) < 18 {
			continue
		}

		id, err := strconv.Atoi(parts[0])
		if err != nil {
			continue
		}

		population, err := strconv.Atoi(parts[14])
		if err != nil || population < p.minPopulation {
			continue
		}

		lat, err := strconv.ParseFloat(parts[4], 64)
		if err != nil {
			continue
		}
		lon, err := strconv.ParseFloat(parts[5], 64)
		if err != nil {
			continue
		}

		var timezone *string
		if tz := parts[17]; tz != "" {
			timezone = &tz
		}

		places = append(places, model.Place{
			ID:          id,
			CountryCode: parts[8],
			Name:        parts[1],
			Population:  population,
			Lat:         lat,
			Lon:         lon,
			Timezone:    timezone,
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan places: %w", err)
	}
	return places, nil
}

// FilterKnownCountries drops places whose country is missing from countries,
// so inserts never trip the foreign key.
func FilterKnownCountries(places []model.Place, countries []model.Country) []model.Place {
	known := make(map[string]bool, len(countries))
	for _, c := range countries {
		known[c.Code] = true
	}

	kept := places[:0]
	for _, p := range places {
		if known[p.CountryCode] {
			kept = append(kept, p)
		}
	}
	return kept
}
