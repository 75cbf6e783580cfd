package issue

// Category groups the issue types a report can be filed under.
type Category struct {
	Name   string   `json:"name"`
	Issues []string `json:"issues"`
}

// Categories is ordered: ties in Stats.TopCategory go to the first category.
var Categories = []Category{
	{
		Name: "Teacher-Parent",
		Issues: []string{
			"Communication gaps",
			"Different expectations",
			"Discipline issues",
			"Homework load",
			"Blame shifting",
			"Attendance and punctuality concerns",
		},
	},
	{
		Name: "Teacher-Student",
		Issues: []string{
			"Lack of interest or motivation",
			"Discipline and classroom behaviour",
			"Fear of teachers",
			"Academic pressure and stress",
			"Misunderstanding teaching methods",
			"Partiality or favouritism",
		},
	},
	{
		Name: "Teacher-Teacher",
		Issues: []string{
			"Differences in teaching styles",
			"Unequal workload distribution",
			"Lack of coordination",
			"Professional jealousy",
			"Communication issues",
			"Resistance to change",
		},
	},
}

func findCategory(name string) (Category, bool) {
	for _, c := range Categories {
		if c.Name == name {
			return c, true
		}
	}
	return Category{}, false
}

// ValidType reports whether issueType is listed under category.
func ValidType(category, issueType string) bool {
	c, ok := findCategory(category)
	if !ok {
		return false
	}
	for _, it := range c.Issues {
		if it == issueType {
			return true
		}
	}
	return false
}
