package models

// Language selects which title and task column a lookup reads
type Language string

const (
	// LanguageEnglish reads the primary (English) columns
	LanguageEnglish Language = "en"
	// LanguageChinese reads the secondary (Chinese) columns
	LanguageChinese Language = "cn"
)

// Valid reports whether l is a supported language
func (l Language) Valid() bool {
	switch l {
	case LanguageEnglish, LanguageChinese:
		return true
	default:
		return false
	}
}
