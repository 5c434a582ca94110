package translation

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint は(原文, ソース言語, ターゲット言語)の決定的フィンガープリントを返す。
// 入力のみの純関数であり、プロセス再起動やデプロイをまたいでも同じキーになる。
// 各要素はNUL区切りで連結するため、原文に":"等が含まれても別入力と衝突しない。
func Fingerprint(text, sourceLang, targetLang string) string {
	h := sha256.New()
	h.Write([]byte(text))
	h.Write([]byte{0})
	h.Write([]byte(sourceLang))
	h.Write([]byte{0})
	h.Write([]byte(targetLang))
	return hex.EncodeToString(h.Sum(nil))
}
