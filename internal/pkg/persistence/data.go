package persistence

import "time"

type (

	// Recording is the stored metadata of one voice channel recording
	Recording struct {
		ID             string     `json:"id"`
		AccessKey      string     `json:"key"`
		DeleteKey      string     `json:"delete"`
		Guild          string     `json:"guild,omitempty"`
		Channel        string     `json:"channel,omitempty"`
		Requester      string     `json:"requester,omitempty"`
		RequesterID    string     `json:"requesterId,omitempty"`
		StartTime      string     `json:"startTime,omitempty"`
		GuildExtra     *NameExtra `json:"guildExtra,omitempty"`
		ChannelExtra   *NameExtra `json:"channelExtra,omitempty"`
		RequesterExtra *UserExtra `json:"requesterExtra,omitempty"`
	}

	// NameExtra is the enriched form of a guild or channel reference
	NameExtra struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	// UserExtra is the enriched form of a user reference
	UserExtra struct {
		ID            string `json:"id"`
		Username      string `json:"username"`
		Discriminator string `json:"discriminator"`
	}

	// Track maps a participant to their audio sub-stream
	Track struct {
		ID            string `json:"id"`
		Name          string `json:"name,omitempty"`
		Username      string `json:"username,omitempty"`
		Discrim       string `json:"discrim,omitempty"`
		Discriminator string `json:"discriminator,omitempty"`
	}

	// Note is a timed free-text annotation, time is a ms offset from recording start
	Note struct {
		Time string `json:"time"`
		Note string `json:"note"`
	}

	// UsageEvent is one access counter row
	UsageEvent struct {
		ID          string
		RecordingID string
		Created     time.Time
	}
)

// DisplayName returns the track name preferring the newer field
func (t *Track) DisplayName() string {
	if t.Name != "" {
		return t.Name
	}
	return t.Username
}

// DisplayDiscrim returns the discriminator preferring the newer field
func (t *Track) DisplayDiscrim() string {
	if t.Discrim != "" {
		return t.Discrim
	}
	return t.Discriminator
}
