package config

// jsonView is the shape Config renders to for GET /config (§4.7). It
// mirrors the YAML schema rather than the internal domain types so
// operators can compare it directly against the source file.
type jsonView struct {
	General struct {
		RouteTimeout int    `json:"route_timeout"`
		LogRotation  string `json:"log_rotation"`
	} `json:"general"`
	Server struct {
		Host     string `json:"host"`
		Port     int    `json:"port"`
		Workers  int    `json:"workers"`
		LogLevel string `json:"log_level"`
	} `json:"server"`
	Filtering struct {
		DefaultAction string `json:"default_action"`
		Conditions    struct {
			Logic string `json:"logic"`
			Rules []struct {
				Field    string `json:"field"`
				Operator string `json:"operator"`
				Value    any    `json:"value"`
			} `json:"rules"`
		} `json:"conditions"`
	} `json:"filtering"`
	Routes []struct {
		Field    string `json:"field"`
		Mappings []struct {
			Key string `json:"key"`
			URL string `json:"url"`
		} `json:"mappings"`
	} `json:"routes"`
	SourcePath string `json:"source_path"`
}

// View renders cfg into its GET /config JSON shape.
func (c *Config) View() any {
	var v jsonView
	v.General.RouteTimeout = c.General.RouteTimeout
	v.General.LogRotation = c.General.LogRotation
	v.Server.Host = c.Server.Host
	v.Server.Port = c.Server.Port
	v.Server.Workers = c.Server.Workers
	v.Server.LogLevel = c.Server.LogLevel
	v.Filtering.DefaultAction = string(c.Filtering.DefaultAction)
	v.Filtering.Conditions.Logic = string(c.Filtering.Conditions.Logic)
	for _, r := range c.Filtering.Conditions.Rules {
		item := struct {
			Field    string `json:"field"`
			Operator string `json:"operator"`
			Value    any    `json:"value"`
		}{
			Field:    r.Field.Source(),
			Operator: string(r.Operator),
			Value:    r.Value,
		}
		v.Filtering.Conditions.Rules = append(v.Filtering.Conditions.Rules, item)
	}
	for _, m := range c.Routes {
		entry := struct {
			Field    string `json:"field"`
			Mappings []struct {
				Key string `json:"key"`
				URL string `json:"url"`
			} `json:"mappings"`
		}{Field: m.Field.Source()}
		for _, e := range m.Entries {
			entry.Mappings = append(entry.Mappings, struct {
				Key string `json:"key"`
				URL string `json:"url"`
			}{Key: e.Key, URL: e.URL})
		}
		v.Routes = append(v.Routes, entry)
	}
	v.SourcePath = c.SourcePath
	return v
}
