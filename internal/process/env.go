package process

import "strings"

// childEnv drops the role marker so the replacement image never sees it.
func childEnv(environ []string) []string {
	out := make([]string, 0, len(environ))
	prefix := RoleEnv + "="
	for _, kv := range environ {
		if strings.HasPrefix(kv, prefix) {
			continue
		}
		out = append(out, kv)
	}
	return out
}
