package features

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Vocabulary はカテゴリ文字列→整数コードの対応です（学習時に確定し、以後不変）。
// クラスは辞書順に並び、コードはその位置です。
type Vocabulary struct {
	Classes []string `json:"classes"`
	index   map[string]int
}

// FitVocabulary は値の集合から語彙を作ります。
func FitVocabulary(values []string) *Vocabulary {
	uniq := make(map[string]struct{}, len(values))
	for _, v := range values {
		uniq[v] = struct{}{}
	}
	classes := make([]string, 0, len(uniq))
	for v := range uniq {
		classes = append(classes, v)
	}
	sort.Strings(classes)
	return NewVocabulary(classes)
}

// NewVocabulary は永続化されたクラス一覧から語彙を復元します。
func NewVocabulary(classes []string) *Vocabulary {
	v := &Vocabulary{
		Classes: append([]string(nil), classes...),
		index:   make(map[string]int, len(classes)),
	}
	for i, c := range v.Classes {
		v.index[c] = i
	}
	return v
}

// Len は登録されたクラス数を返します。
func (v *Vocabulary) Len() int {
	return len(v.Classes)
}

// FallbackCode は未知の値に割り当てるコード（最初に登録されたクラスのコード）です。
func (v *Vocabulary) FallbackCode() int {
	return 0
}

// Code は値のコードを返します。ok=false の場合は未知の値です。
func (v *Vocabulary) Code(value string) (code int, ok bool) {
	code, ok = v.index[value]
	return code, ok
}

// Transform は値のコードを返し、未知の値は FallbackCode に置き換えます。
// 未知カテゴリでエラーにはしません。
func (v *Vocabulary) Transform(value string) int {
	if code, ok := v.index[value]; ok {
		return code
	}
	return v.FallbackCode()
}

// Validate は語彙が利用可能かを検査します。
func (v *Vocabulary) Validate() error {
	if v == nil || len(v.Classes) == 0 {
		return fmt.Errorf("empty vocabulary")
	}
	for i := 1; i < len(v.Classes); i++ {
		if v.Classes[i-1] >= v.Classes[i] {
			return fmt.Errorf("classes are not strictly sorted at %d", i)
		}
	}
	return nil
}

// UnmarshalJSON はクラス一覧から索引を再構築します。
func (v *Vocabulary) UnmarshalJSON(data []byte) error {
	var raw struct {
		Classes []string `json:"classes"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = *NewVocabulary(raw.Classes)
	return nil
}
