package domain

import "time"

// Avatar selects which parallel set of pre-recorded sign clips to use.
type Avatar string

const (
	AvatarMale   Avatar = "male"
	AvatarFemale Avatar = "female"
)

// Valid reports whether the avatar is one of the two supported performers.
func (a Avatar) Valid() bool {
	return a == AvatarMale || a == AvatarFemale
}

// ModelDir is the per-avatar directory name under the asset root.
func (a Avatar) ModelDir() string {
	return string(a) + "-model"
}

// AnnouncementTemplate holds the per-category template texts, one per
// supported language. Empty text means the template does not cover that
// language.
type AnnouncementTemplate struct {
	ID       int64
	Category string
	English  string
	Hindi    string
	Marathi  string
	Gujarati string
}

// RouteTranslation carries the translated train/station names for one train
// number. A nil RouteTranslation means no translation row exists and
// non-English announcement texts stay unset.
type RouteTranslation struct {
	TrainNumber   string
	TrainNameHi   string
	FromStationHi string
	ToStationHi   string
	TrainNameMr   string
	FromStationMr string
	ToStationMr   string
	TrainNameGu   string
	FromStationGu string
	ToStationGu   string
}

// Announcement is the persisted general-announcement record. VideoRef is set
// after a successful video generation; deleting the record best-effort
// deletes the referenced file.
type Announcement struct {
	ID           int64
	Name         string
	Category     string
	Avatar       Avatar
	TextEnglish  string
	TextHindi    *string
	TextMarathi  *string
	TextGujarati *string
	VideoRef     *AssetRef
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
