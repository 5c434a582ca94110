package model

// TranslateResult は翻訳APIのレスポンス形を表す。
// 失敗時はSuccess=falseとErrorメッセージを持ち、TranslatedTextは空になる。
type TranslateResult struct {
	TranslatedText string
	SourceLang     string
	TargetLang     string
	Success        bool
	Error          string
}
