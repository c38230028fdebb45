package geo

// Point is a latitude/longitude pair in degrees.
type Point struct {
	Lat float64
	Lon float64
}

// Centroids maps a canonical district key to its reference point. The city
// key doubles as the generic fallback for rows that match no district.
type Centroids struct {
	points  map[string]Point
	cityKey string
}

// NewCentroids builds a centroid table. cityKey must be present in points.
func NewCentroids(points map[string]Point, cityKey string) Centroids {
	cp := make(map[string]Point, len(points))
	for k, v := range points {
		cp[k] = v
	}
	return Centroids{points: cp, cityKey: cityKey}
}

// CityKey returns the generic fallback key.
func (c Centroids) CityKey() string { return c.cityKey }

// Keys returns every canonical district key, city fallback included.
func (c Centroids) Keys() []string {
	keys := make([]string, 0, len(c.points))
	for k := range c.points {
		keys = append(keys, k)
	}
	return keys
}

// Lookup resolves a district key to its centroid, falling back to the city
// centroid for unrecognized keys.
func (c Centroids) Lookup(key string) Point {
	if p, ok := c.points[key]; ok {
		return p
	}
	return c.points[c.cityKey]
}

// Berlin returns the fixed Berlin district centroid table.
func Berlin() Centroids {
	return NewCentroids(map[string]Point{
		"mitte":           {52.5200, 13.4050},
		"kreuzberg":       {52.4986, 13.4030},
		"neukölln":        {52.4751, 13.4386},
		"friedrichshain":  {52.5156, 13.4549},
		"charlottenburg":  {52.5070, 13.3040},
		"wilmersdorf":     {52.4895, 13.3157},
		"schöneberg":      {52.4832, 13.3477},
		"tempelhof":       {52.4675, 13.4036},
		"pankow":          {52.5693, 13.4010},
		"prenzlauer berg": {52.5380, 13.4247},
		"spandau":         {52.5511, 13.1999},
		"steglitz":        {52.4560, 13.3220},
		"treptow":         {52.4816, 13.4764},
		"köpenick":        {52.4429, 13.5756},
		"marzahn":         {52.5450, 13.5690},
		"hellersdorf":     {52.5345, 13.6132},
		"reinickendorf":   {52.5870, 13.3260},
		"moabit":          {52.5303, 13.3390},
		"wedding":         {52.5496, 13.3551},
		"berlin":          {52.5200, 13.4050},
	}, "berlin")
}
