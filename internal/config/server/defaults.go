package server

import "github.com/spf13/viper"

func GetServerDefault() BaseServerConfig {
	return BaseServerConfig{
		ShutdownTimeout: "10s",

		Log: LogServerConfig{
			Level:      "INFO",
			TimeFormat: "2006-01-02 15:04:05",
			File:       "",
			NoColor:    false,
			JSON:       false,
			NoTerminal: false,
			Rotation: LogServerRotationConfig{
				MaxSize:    128,
				MaxBackups: 5,
				MaxAge:     16,
				Compress:   false,
			},
			SQL: "silent",
		},
		Metadata: MetadataServerConfig{
			Type: "sqlite",
			SQLite: MetadataSQLiteConfig{
				Path: "trainmap.db",
			},
		},
		Feed: FeedServerConfig{
			Source:  "trainings.json",
			TTL:     "24h",
			Timeout: "15s",
		},
		Filter: FilterServerConfig{
			NearbyRadiusKm: 5,
			Debounce:       "150ms",
		},
		Location: LocationServerConfig{
			Device: LocationDeviceConfig{
				Enabled: false,
				Timeout: "10s",
			},
			Geocoder: LocationGeocoderConfig{
				URL:          "https://nominatim.openstreetmap.org/search",
				CountryCodes: "de",
				UserAgent:    "trainmap/1.0",
				Timeout:      "5s",
				RateLimit:    1,
			},
		},
		Map: MapServerConfig{
			CenterLat:     51.1657,
			CenterLng:     10.4515,
			Zoom:          6,
			MaxFitZoom:    15,
			FitPadding:    50,
			ClickAnchor:   0.7,
			ViewTTL:       "168h",
			ViewportW:     1024,
			ViewportH:     768,
			ClusterRadius: 80,
			Tiles: []MapTileConfig{
				{
					Name:        "Karte",
					URL:         "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
					Attribution: "© OpenStreetMap contributors",
					MaxZoom:     19,
				},
				{
					Name:        "Satellit",
					URL:         "https://server.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer/tile/{z}/{y}/{x}",
					Attribution: "Tiles © Esri",
					MaxZoom:     18,
				},
			},
			TypeColors: map[string]string{},
		},
		Bridge: BridgeServerConfig{
			Enabled:      true,
			Address:      "127.0.0.1:8787",
			AllowOrigins: []string{"http://127.0.0.1:8787", "http://localhost:8787"},
		},
	}
}

func setDefaults() {
	defaults := GetServerDefault()

	viper.SetDefault("shutdown_timeout", defaults.ShutdownTimeout)

	viper.SetDefault("log.level", defaults.Log.Level)
	viper.SetDefault("log.time_format", defaults.Log.TimeFormat)
	viper.SetDefault("log.file", defaults.Log.File)
	viper.SetDefault("log.no_color", defaults.Log.NoColor)
	viper.SetDefault("log.json", defaults.Log.JSON)
	viper.SetDefault("log.no_terminal", defaults.Log.NoTerminal)
	viper.SetDefault("log.rotation.max_size", defaults.Log.Rotation.MaxSize)
	viper.SetDefault("log.rotation.max_backups", defaults.Log.Rotation.MaxBackups)
	viper.SetDefault("log.rotation.max_age", defaults.Log.Rotation.MaxAge)
	viper.SetDefault("log.rotation.compress", defaults.Log.Rotation.Compress)
	viper.SetDefault("log.sql", defaults.Log.SQL)

	viper.SetDefault("metadata.type", defaults.Metadata.Type)
	viper.SetDefault("metadata.sqlite.path", defaults.Metadata.SQLite.Path)

	viper.SetDefault("feed.source", defaults.Feed.Source)
	viper.SetDefault("feed.ttl", defaults.Feed.TTL)
	viper.SetDefault("feed.timeout", defaults.Feed.Timeout)

	viper.SetDefault("filter.nearby_radius_km", defaults.Filter.NearbyRadiusKm)
	viper.SetDefault("filter.debounce", defaults.Filter.Debounce)

	viper.SetDefault("location.device.enabled", defaults.Location.Device.Enabled)
	viper.SetDefault("location.device.timeout", defaults.Location.Device.Timeout)
	viper.SetDefault("location.geocoder.url", defaults.Location.Geocoder.URL)
	viper.SetDefault("location.geocoder.country_codes", defaults.Location.Geocoder.CountryCodes)
	viper.SetDefault("location.geocoder.user_agent", defaults.Location.Geocoder.UserAgent)
	viper.SetDefault("location.geocoder.timeout", defaults.Location.Geocoder.Timeout)
	viper.SetDefault("location.geocoder.rate_limit", defaults.Location.Geocoder.RateLimit)

	viper.SetDefault("map.center_lat", defaults.Map.CenterLat)
	viper.SetDefault("map.center_lng", defaults.Map.CenterLng)
	viper.SetDefault("map.zoom", defaults.Map.Zoom)
	viper.SetDefault("map.max_fit_zoom", defaults.Map.MaxFitZoom)
	viper.SetDefault("map.fit_padding", defaults.Map.FitPadding)
	viper.SetDefault("map.click_anchor", defaults.Map.ClickAnchor)
	viper.SetDefault("map.view_ttl", defaults.Map.ViewTTL)
	viper.SetDefault("map.viewport_width", defaults.Map.ViewportW)
	viper.SetDefault("map.viewport_height", defaults.Map.ViewportH)
	viper.SetDefault("map.cluster_radius", defaults.Map.ClusterRadius)
	viper.SetDefault("map.tiles", defaults.Map.Tiles)
	viper.SetDefault("map.type_colors", defaults.Map.TypeColors)

	viper.SetDefault("bridge.enabled", defaults.Bridge.Enabled)
	viper.SetDefault("bridge.address", defaults.Bridge.Address)
	viper.SetDefault("bridge.allow_origins", defaults.Bridge.AllowOrigins)
}
