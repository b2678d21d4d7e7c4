package di

import "strings"

var keyReplacer = strings.NewReplacer(`\`, "/", ".", "/")

// NormalizeKey lowercases key and maps `\` and `.` separators to `/`.
//
//	NormalizeKey(`Services\Mail.Sender`) == "services/mail/sender"
func NormalizeKey(key string) string {
	return keyReplacer.Replace(strings.ToLower(key))
}

func normalizeKeys(keys []string) []string {
	if len(keys) == 0 {
		return nil
	}
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = NormalizeKey(k)
	}
	return out
}
