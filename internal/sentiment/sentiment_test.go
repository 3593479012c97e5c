package sentiment

import (
	"errors"
	"slices"
	"testing"

	"github.com/ZyrusXD/BMA-Voice/internal/model"
)

func TestLexiconScore(t *testing.T) {
	lex := DefaultLexicon()
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"ถนนหน้าบ้าน", 0},
		{"ขอบคุณเจ้าหน้าที่ ทางเท้าสะอาดมาก", 2},
		{"ถนนพัง ไฟมืด อันตราย", -3},
		{"บริการไม่ดี", -1},
		{"บริการดีมาก", 1},
		{"Great job, very CLEAN", 2},
		{"ขยะเยอะ แต่วันนี้เก็บเรียบร้อย", 0},
	}
	for _, tt := range tests {
		got, err := lex.Score(tt.text)
		if err != nil {
			t.Fatalf("Score(%q): %v", tt.text, err)
		}
		if got != tt.want {
			t.Errorf("Score(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestScorerFunc(t *testing.T) {
	boom := errors.New("model offline")
	var s Scorer = ScorerFunc(func(string) (int, error) { return 0, boom })
	if _, err := s.Score("x"); !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
}

func TestClassifyPolicy(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"", model.PolicyUnspecified},
		{"ทางเท้าแตกเป็นหลุม", PolicyTravel},
		{"ไฟทางดับทั้งซอย", PolicySafety},
		{"น้ำท่วมขังหน้าตลาด", PolicyEnvironment},
		{"ยุงเยอะมาก กลัวไข้เลือดออก", PolicyHealth},
		{"สงสัยว่างบประมาณซ่อมถนนหายไปไหน", PolicyTransparent},
		{"โรงเรียนไม่มีรั้ว", PolicyEducation},
		{"ติดต่อสำนักงานเขตแล้วไม่มีใครรับเรื่อง", PolicyManagement},
		{"CCTV เสีย", PolicySafety},
		{"อยากได้ที่นั่งพัก", model.PolicyUnspecified},
	}
	for _, tt := range tests {
		if got := ClassifyPolicy(tt.text); got != tt.want {
			t.Errorf("ClassifyPolicy(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestIsPolicyAspect(t *testing.T) {
	if !IsPolicyAspect(PolicyHealth) {
		t.Error("health should be a policy aspect")
	}
	if !IsPolicyAspect(model.PolicyUnspecified) {
		t.Error("unspecified should be a policy aspect")
	}
	if IsPolicyAspect("อื่นๆ") {
		t.Error("unknown aspect accepted")
	}
}

func TestExtractHashtags(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"no tags here", nil},
		{"#น้ำท่วม ที่ซอย 5", []string{"น้ำท่วม"}},
		{"#Flood #flood #PM2 #ฝุ่น_พิษ", []string{"flood", "pm2", "ฝุ่น_พิษ"}},
		{"ทางเท้า#พัง, #ไฟดับ!", []string{"พัง", "ไฟดับ"}},
		{"# alone", nil},
	}
	for _, tt := range tests {
		if got := ExtractHashtags(tt.text); !slices.Equal(got, tt.want) {
			t.Errorf("ExtractHashtags(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}
