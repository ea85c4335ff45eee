package enums

// ScoreboardVisibility controls who can view a scoreboard.
type ScoreboardVisibility string

const (
	ScoreboardVisibilityPublic  ScoreboardVisibility = "public"
	ScoreboardVisibilityPrivate ScoreboardVisibility = "private"
)

var scoreboardVisibilities = []ScoreboardVisibility{ScoreboardVisibilityPublic, ScoreboardVisibilityPrivate}

func (v ScoreboardVisibility) String() string { return string(v) }

func (v ScoreboardVisibility) IsValid() bool { return member(scoreboardVisibilities, v) }

// SlideType distinguishes kiosk slides. Image slides carry an uploaded file,
// scoreboard slides render the board itself.
type SlideType string

const (
	SlideTypeImage      SlideType = "image"
	SlideTypeScoreboard SlideType = "scoreboard"
)

var slideTypes = []SlideType{SlideTypeImage, SlideTypeScoreboard}

func (s SlideType) String() string { return string(s) }

func (s SlideType) IsValid() bool { return member(slideTypes, s) }
