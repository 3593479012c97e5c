package sentiment

import (
	"strings"

	"github.com/ZyrusXD/BMA-Voice/internal/model"
)

// Policy aspects a post can be filed under.
const (
	PolicyTravel      = "เดินทางดี"
	PolicySafety      = "ปลอดภัยดี"
	PolicyTransparent = "โปร่งใสดี"
	PolicyEnvironment = "สิ่งแวดล้อมดี"
	PolicyHealth      = "สุขภาพดี"
	PolicyEducation   = "เรียนดี"
	PolicyEconomy     = "เศรษฐกิจดี"
	PolicySociety     = "สังคมดี"
	PolicyManagement  = "บริหารจัดการดี"
)

// PolicyAspects lists every aspect including the unspecified one.
var PolicyAspects = []string{
	PolicyTravel, PolicySafety, PolicyTransparent, PolicyEnvironment, PolicyHealth,
	PolicyEducation, PolicyEconomy, PolicySociety, PolicyManagement, model.PolicyUnspecified,
}

// IsPolicyAspect reports whether s is a known aspect.
func IsPolicyAspect(s string) bool {
	for _, a := range PolicyAspects {
		if a == s {
			return true
		}
	}
	return false
}

// ClassifyPolicy returns the policy aspect whose keywords appear first in the
// keyword table, or the unspecified aspect.
func ClassifyPolicy(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	if s == "" {
		return model.PolicyUnspecified
	}
	for _, entry := range policyKeywords {
		if strings.Contains(s, entry.keyword) {
			return entry.aspect
		}
	}
	return model.PolicyUnspecified
}

// Ordered more specific first.
var policyKeywords = []struct {
	keyword string
	aspect  string
}{
	// Transparency
	{"ทุจริต", PolicyTransparent},
	{"คอร์รัปชัน", PolicyTransparent},
	{"สินบน", PolicyTransparent},
	{"โกง", PolicyTransparent},
	{"งบประมาณ", PolicyTransparent},

	// Safety
	{"ไฟฟ้าส่องสว่าง", PolicySafety},
	{"ไฟทาง", PolicySafety},
	{"กล้องวงจรปิด", PolicySafety},
	{"cctv", PolicySafety},
	{"อาชญากรรม", PolicySafety},
	{"ขโมย", PolicySafety},
	{"อันตราย", PolicySafety},
	{"มืด", PolicySafety},

	// Travel
	{"ทางเท้า", PolicyTravel},
	{"ฟุตบาท", PolicyTravel},
	{"รถติด", PolicyTravel},
	{"รถเมล์", PolicyTravel},
	{"ป้ายรถ", PolicyTravel},
	{"ถนน", PolicyTravel},
	{"สะพาน", PolicyTravel},
	{"จราจร", PolicyTravel},
	{"หลุม", PolicyTravel},

	// Environment
	{"น้ำท่วม", PolicyEnvironment},
	{"ท่อระบายน้ำ", PolicyEnvironment},
	{"ขยะ", PolicyEnvironment},
	{"ฝุ่น", PolicyEnvironment},
	{"pm2.5", PolicyEnvironment},
	{"ต้นไม้", PolicyEnvironment},
	{"สวน", PolicyEnvironment},
	{"คลอง", PolicyEnvironment},
	{"เหม็น", PolicyEnvironment},

	// Health
	{"โรงพยาบาล", PolicyHealth},
	{"ศูนย์สาธารณสุข", PolicyHealth},
	{"ยุง", PolicyHealth},
	{"ไข้เลือดออก", PolicyHealth},
	{"สุขภาพ", PolicyHealth},

	// Education
	{"โรงเรียน", PolicyEducation},
	{"นักเรียน", PolicyEducation},
	{"ห้องสมุด", PolicyEducation},
	{"การศึกษา", PolicyEducation},

	// Economy
	{"หาบเร่", PolicyEconomy},
	{"แผงลอย", PolicyEconomy},
	{"ตลาด", PolicyEconomy},
	{"ค้าขาย", PolicyEconomy},
	{"อาชีพ", PolicyEconomy},

	// Society
	{"คนไร้บ้าน", PolicySociety},
	{"ผู้สูงอายุ", PolicySociety},
	{"ผู้พิการ", PolicySociety},
	{"ชุมชน", PolicySociety},
	{"สุนัขจรจัด", PolicySociety},

	// Management
	{"สำนักงานเขต", PolicyManagement},
	{"เจ้าหน้าที่", PolicyManagement},
	{"ล่าช้า", PolicyManagement},
	{"ร้องเรียน", PolicyManagement},
	{"บริการ", PolicyManagement},
}
