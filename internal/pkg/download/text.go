package download

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sorajate/craig/internal/pkg/persistence"
	"github.com/sorajate/craig/internal/pkg/utils"
)

// composeInfoText builds the downloadable plain text summary of a recording.
// Enriched guild/channel/requester forms are preferred, raw identifiers are
// the fallback. The notes section is present only when notes exist.
func composeInfoText(rec *persistence.Recording, users []persistence.Track, notes []persistence.Note) string {
	lines := []string{
		fmt.Sprintf("Recording %s", rec.ID),
		"",
		"Guild:\t\t" + guildLine(rec),
		"Channel:\t" + channelLine(rec),
		"Requester:\t" + requesterLine(rec),
		"Start time:\t" + rec.StartTime,
		"",
		"Tracks:",
	}
	for _, tr := range users {
		lines = append(lines, fmt.Sprintf("\t%s#%s (%s)", tr.DisplayName(), tr.DisplayDiscrim(), tr.ID))
	}
	if len(notes) > 0 {
		lines = append(lines, "", "Notes:")
		for _, n := range notes {
			lines = append(lines, fmt.Sprintf("\t%s: %s", utils.FormatTime(parseMs(n.Time)), n.Note))
		}
	}
	return strings.Join(lines, "\n")
}

func guildLine(rec *persistence.Recording) string {
	if rec.GuildExtra != nil {
		return fmt.Sprintf("%s (%s)", rec.GuildExtra.Name, rec.GuildExtra.ID)
	}
	return rec.Guild
}

func channelLine(rec *persistence.Recording) string {
	if rec.ChannelExtra != nil {
		return fmt.Sprintf("%s (%s)", rec.ChannelExtra.Name, rec.ChannelExtra.ID)
	}
	return rec.Channel
}

func requesterLine(rec *persistence.Recording) string {
	if rec.RequesterExtra != nil {
		return fmt.Sprintf("%s#%s (%s)", rec.RequesterExtra.Username,
			rec.RequesterExtra.Discriminator, rec.RequesterID)
	}
	return rec.Requester
}

func parseMs(s string) int64 {
	res, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return res
}
