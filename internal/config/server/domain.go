package server

// FeedServerConfig describes where trainings come from and how long the
// cached snapshot stays valid.
type FeedServerConfig struct {
	Source  string `mapstructure:"source"  yaml:"source"`
	TTL     string `mapstructure:"ttl"     yaml:"ttl"`
	Timeout string `mapstructure:"timeout" yaml:"timeout"`
}

type FilterServerConfig struct {
	NearbyRadiusKm float64 `mapstructure:"nearby_radius_km" yaml:"nearby_radius_km" validate:"gte=1,lte=100"`
	Debounce       string  `mapstructure:"debounce"         yaml:"debounce"`
}

type LocationServerConfig struct {
	// Device is the fixed position reported by the static device locator.
	Device   LocationDeviceConfig   `mapstructure:"device"   yaml:"device"`
	Geocoder LocationGeocoderConfig `mapstructure:"geocoder" yaml:"geocoder"`
}

type LocationDeviceConfig struct {
	Enabled bool    `mapstructure:"enabled" yaml:"enabled"`
	Lat     float64 `mapstructure:"lat"     yaml:"lat"     validate:"latitude"`
	Lng     float64 `mapstructure:"lng"     yaml:"lng"     validate:"longitude"`
	Timeout string  `mapstructure:"timeout" yaml:"timeout"`
}

type LocationGeocoderConfig struct {
	URL          string  `mapstructure:"url"           yaml:"url"           validate:"omitempty,url"`
	CountryCodes string  `mapstructure:"country_codes" yaml:"country_codes"`
	UserAgent    string  `mapstructure:"user_agent"    yaml:"user_agent"`
	Timeout      string  `mapstructure:"timeout"       yaml:"timeout"`
	RateLimit    float64 `mapstructure:"rate_limit"    yaml:"rate_limit"    validate:"gte=0"`
}

type MapServerConfig struct {
	CenterLat     float64           `mapstructure:"center_lat"      yaml:"center_lat"      validate:"latitude"`
	CenterLng     float64           `mapstructure:"center_lng"      yaml:"center_lng"      validate:"longitude"`
	Zoom          float64           `mapstructure:"zoom"            yaml:"zoom"            validate:"gte=0,lte=22"`
	MaxFitZoom    float64           `mapstructure:"max_fit_zoom"    yaml:"max_fit_zoom"    validate:"gte=0,lte=22"`
	FitPadding    float64           `mapstructure:"fit_padding"     yaml:"fit_padding"     validate:"gte=0"`
	ClickAnchor   float64           `mapstructure:"click_anchor"    yaml:"click_anchor"    validate:"gt=0,lt=1"`
	ViewTTL       string            `mapstructure:"view_ttl"        yaml:"view_ttl"`
	ViewportW     float64           `mapstructure:"viewport_width"  yaml:"viewport_width"`
	ViewportH     float64           `mapstructure:"viewport_height" yaml:"viewport_height"`
	ClusterRadius float64           `mapstructure:"cluster_radius"  yaml:"cluster_radius"`
	Tiles         []MapTileConfig   `mapstructure:"tiles"           yaml:"tiles"           validate:"dive"`
	TypeColors    map[string]string `mapstructure:"type_colors"     yaml:"type_colors"`
}

type MapTileConfig struct {
	Name        string  `mapstructure:"name"        yaml:"name"        validate:"required"`
	URL         string  `mapstructure:"url"         yaml:"url"         validate:"required"`
	Attribution string  `mapstructure:"attribution" yaml:"attribution"`
	MaxZoom     float64 `mapstructure:"max_zoom"    yaml:"max_zoom"`
}

type BridgeServerConfig struct {
	Enabled      bool     `mapstructure:"enabled"       yaml:"enabled"`
	Address      string   `mapstructure:"address"       yaml:"address"       validate:"omitempty,hostname_port"`
	AllowOrigins []string `mapstructure:"allow_origins" yaml:"allow_origins"`
}
