package features

import (
	"fmt"

	"oil-sales-api/pkg/errx"
)

// State は学習時に一度だけ作られる特徴量の状態です。
// 学習用の呼び出しは常に新しい State を返し、既存の State を書き換えません。
type State struct {
	BrandFrequency BrandFrequency         `json:"brand_freq_map"`
	Vocabularies   map[string]*Vocabulary `json:"encoders"`
}

// clone は浅いコピーを返します。マップは差し替え前提のため共有します。
func (s *State) clone() *State {
	if s == nil {
		return &State{}
	}
	cp := *s
	return &cp
}

// Fitted は推論に必要な状態がそろっているかを返します。
func (s *State) Fitted() bool {
	if s == nil || s.BrandFrequency == nil || s.Vocabularies == nil {
		return false
	}
	for _, col := range CategoricalFeatures {
		if _, ok := s.Vocabularies[col]; !ok {
			return false
		}
	}
	return true
}

// Validate は永続化された状態の整合性を検査します。
func (s *State) Validate() error {
	if s == nil {
		return fmt.Errorf("state is nil")
	}
	if s.BrandFrequency == nil {
		return fmt.Errorf("brand frequency table is missing")
	}
	if len(s.Vocabularies) != len(CategoricalFeatures) {
		return fmt.Errorf("expected %d vocabularies, got %d", len(CategoricalFeatures), len(s.Vocabularies))
	}
	for _, col := range CategoricalFeatures {
		if err := s.Vocabularies[col].Validate(); err != nil {
			return fmt.Errorf("vocabulary %s: %w", col, err)
		}
	}
	return nil
}

func errNotFitted(what string) error {
	return fmt.Errorf("%s: %w", what, errx.ErrNotFitted)
}
