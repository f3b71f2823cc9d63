package protocol

// Messages going out to the browser.

type Welcome struct {
	V         int      `json:"v"`
	SessionID string   `json:"sessionId"`
	StateHz   int      `json:"stateHz"`
	Themes    []string `json:"themes"`
}

type State struct {
	Status     string             `json:"status"`
	Mode       string             `json:"mode"`
	Theme      string             `json:"theme"`
	Score      int                `json:"score"`
	Lives      []int              `json:"lives"`
	MaxLives   int                `json:"maxLives"`
	ElapsedMs  int64              `json:"elapsedMs"`
	Difficulty float64            `json:"difficulty"`
	ShowHelp   bool               `json:"showHelp,omitempty"`
	HighScore  int                `json:"highScore"`
	Enemies    []EnemySnapshot    `json:"enemies"`
	PowerUps   []PowerUpSnapshot  `json:"powerUps,omitempty"`
	Particles  []ParticleSnapshot `json:"particles,omitempty"`
}

type EnemySnapshot struct {
	ID     uint64  `json:"id"`
	Kind   string  `json:"kind"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Size   float64 `json:"size"`
	Seeker bool    `json:"seeker,omitempty"`
	Label  string  `json:"label,omitempty"`
	Color  string  `json:"color"`
}

type PowerUpSnapshot struct {
	ID   uint64  `json:"id"`
	Kind string  `json:"kind"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Size float64 `json:"size"`
}

type ParticleSnapshot struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Size  float64 `json:"size"`
	Alpha float64 `json:"a"`
	Color string  `json:"color"`
}

type Cue struct {
	Name string `json:"name"`
}

// Music starts or stops the browser-side beat.
type Music struct {
	On bool `json:"on"`
}

type GameOver struct {
	MatchID     string   `json:"matchId"`
	Score       int      `json:"score"`
	Lives       []int    `json:"lives"`
	Reason      string   `json:"reason"`
	DurationMs  int64    `json:"durationMs"`
	HighScore   int      `json:"highScore"`
	NewBest     bool     `json:"newBest,omitempty"`
	Screenshots [][]byte `json:"screenshots"` // JPEG, base64 in JSON
}

type Error struct {
	Message string `json:"message"`
}
