package translation

import "strings"

// languageNames は言語コードからプロンプト用の表示名への対応表。
var languageNames = map[string]string{
	"zh":    "Chinese",
	"zh-cn": "Simplified Chinese",
	"zh-tw": "Traditional Chinese",
	"en":    "English",
	"en-us": "English",
	"ja":    "Japanese",
	"ko":    "Korean",
	"fr":    "French",
	"de":    "German",
	"es":    "Spanish",
	"it":    "Italian",
	"ru":    "Russian",
	"pt":    "Portuguese",
}

// LanguageName は言語コードを表示名に変換する。未知のコードはそのまま返す。
func LanguageName(code string) string {
	if name, ok := languageNames[strings.ToLower(code)]; ok {
		return name
	}
	return code
}

// SupportedLanguages は対応言語コードの一覧を返す。/api/languages用。
func SupportedLanguages() []string {
	return []string{
		"zh-CN", "en-US", "ja", "ko", "fr", "de", "es", "it", "ru", "pt",
	}
}
