package endpoint

import "fmt"

// Numeric endpoint type ids accepted for compatibility with clients that
// predate plugin names.
var legacyTypeNames = map[int]string{
	1:   "android",
	2:   "email",
	4:   "webhook",
	100: "slack",
	101: "telegram",
}

// ResolvePluginName normalizes the plugin reference from a create request:
// either plugin_name directly, or a legacy numeric/string type id.
func ResolvePluginName(pluginName string, legacyType interface{}) (string, error) {
	if pluginName != "" {
		return pluginName, nil
	}

	switch v := legacyType.(type) {
	case nil:
		return "", fmt.Errorf("plugin_name is required")
	case string:
		if v == "" {
			return "", fmt.Errorf("plugin_name is required")
		}
		return v, nil
	case float64:
		name, ok := legacyTypeNames[int(v)]
		if !ok {
			return "", fmt.Errorf("unknown endpoint type id %d", int(v))
		}
		return name, nil
	case int:
		name, ok := legacyTypeNames[v]
		if !ok {
			return "", fmt.Errorf("unknown endpoint type id %d", v)
		}
		return name, nil
	default:
		return "", fmt.Errorf("invalid endpoint type %v", legacyType)
	}
}
