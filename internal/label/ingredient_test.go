package label

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractIngredients(t *testing.T) {
	tests := []struct {
		name     string
		itemName string
		want     []string
	}{
		{
			name:     "single ingredient",
			itemName: "타이레놀정500밀리그램(아세트아미노펜)",
			want:     []string{"아세트아미노펜"},
		},
		{
			name:     "comma separated",
			itemName: "게보린정(아세트아미노펜,이소프로필안티피린)",
			want:     []string{"아세트아미노펜", "이소프로필안티피린"},
		},
		{
			name:     "middle dot separated",
			itemName: "판콜에이내복액(아세트아미노펜·클로르페니라민)",
			want:     []string{"아세트아미노펜", "클로르페니라민"},
		},
		{
			name:     "whitespace separated with padding",
			itemName: "복합제( 아세트아미노펜  카페인무수물 )",
			want:     []string{"아세트아미노펜", "카페인무수물"},
		},
		{
			name:     "multiple groups preserve duplicates",
			itemName: "이중정(아세트아미노펜)속붕해층(아세트아미노펜)",
			want:     []string{"아세트아미노펜", "아세트아미노펜"},
		},
		{
			name:     "no parentheses",
			itemName: "타이레놀정",
			want:     nil,
		},
		{
			name:     "empty name",
			itemName: "",
			want:     nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractIngredients(tt.itemName))
		})
	}
}
