package ledger

// Standing thresholds, lowest first. A user holds the title of the highest
// threshold not above their level.
var titles = []struct {
	minLevel int
	title    string
}{
	{1, "พลเมืองใหม่"},
	{11, "ผู้สังเกตการณ์"},
	{21, "พลเมืองขั้นสูง"},
	{31, "ผู้พิทักษ์ย่าน"},
	{41, "อัศวินเมือง"},
	{51, "วีรชน BMA Voice"},
}

const pointsPerLevel = 100

// LevelFor returns the level for a balance.
func LevelFor(points int) int {
	if points < 0 {
		points = 0
	}
	return points/pointsPerLevel + 1
}

// TitleFor returns the title for a level.
func TitleFor(level int) string {
	title := titles[0].title
	for _, t := range titles {
		if level < t.minLevel {
			break
		}
		title = t.title
	}
	return title
}
