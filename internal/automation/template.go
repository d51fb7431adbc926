package automation

import (
	"regexp"
	"strings"
	"text/template"

	"agency_crm_backend/internal/leads/domain"
)

var placeholderPattern = regexp.MustCompile(`{{\s*([A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z_][A-Za-z0-9_]*)*)\s*}}`)

// RenderMessage resolves {{name}}-style placeholders against lead. Both flat
// ({{website}}) and prefixed ({{lead.website}}) forms work, case-insensitively.
// Unknown placeholders render empty. On a template error the raw text is
// returned together with the error.
func RenderMessage(tpl string, lead domain.Lead) (string, error) {
	if !strings.Contains(tpl, "{{") {
		return tpl, nil
	}

	data := templateVariables(lead)
	normalized := normalizePlaceholders(tpl, data)

	parsed, err := template.New("drip").Option("missingkey=zero").Parse(normalized)
	if err != nil {
		return tpl, err
	}
	var b strings.Builder
	if err := parsed.Execute(&b, data); err != nil {
		return tpl, err
	}
	return b.String(), nil
}

func templateVariables(lead domain.Lead) map[string]any {
	fields := map[string]string{
		"name":         lead.Name,
		"first_name":   firstName(lead.Name),
		"status":       lead.Status.String(),
		"website":      lead.Website,
		"phone":        lead.Phone,
		"email":        lead.Email,
		"industry":     lead.Industry,
		"service_type": lead.ServiceType,
		"source":       lead.Source,
	}

	data := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		data[k] = v
	}
	data["lead"] = fields
	return data
}

func firstName(name string) string {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}

// normalizePlaceholders rewrites {{lead.name}} into {{.lead.name}} using the
// canonical key spelling, and drops placeholders that resolve to nothing so
// that text/template never prints "<no value>".
func normalizePlaceholders(tpl string, data map[string]any) string {
	return placeholderPattern.ReplaceAllStringFunc(tpl, func(match string) string {
		submatches := placeholderPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}
		canonical, ok := canonicalizePath(strings.TrimSpace(submatches[1]), data)
		if !ok {
			return ""
		}
		return "{{." + canonical + "}}"
	})
}

func canonicalizePath(path string, data map[string]any) (string, bool) {
	segments := strings.Split(path, ".")
	resolved := make([]string, 0, len(segments))
	var current any = data

	for _, segment := range segments {
		key, next, ok := lookupFold(current, segment)
		if !ok {
			return "", false
		}
		resolved = append(resolved, key)
		current = next
	}

	if _, isLeaf := current.(string); !isLeaf {
		return "", false
	}
	return strings.Join(resolved, "."), true
}

func lookupFold(current any, key string) (string, any, bool) {
	switch m := current.(type) {
	case map[string]any:
		if v, ok := m[key]; ok {
			return key, v, true
		}
		for k, v := range m {
			if strings.EqualFold(k, key) {
				return k, v, true
			}
		}
	case map[string]string:
		if v, ok := m[key]; ok {
			return key, v, true
		}
		for k, v := range m {
			if strings.EqualFold(k, key) {
				return k, v, true
			}
		}
	}
	return "", nil, false
}
