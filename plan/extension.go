/*
extension.go - Channel-specific line item payloads

PURPOSE:
  Each media channel carries its own extra fields on a line item (an
  out-of-home placement has panel counts and facings, a TV spot has
  dayparts and spot lengths). ChannelExtension is a closed tagged union:
  the Channel field is the tag, and exactly one variant pointer is
  populated. Readers switch on the tag instead of probing variants in
  priority order.

SEE ALSO:
  - fields/: The resolver registry that maps abstract table columns onto
    these variants
*/
package plan

// ChannelExtension is the tagged union of channel payloads. Channel is
// the discriminant; the matching variant pointer is the only one set.
type ChannelExtension struct {
	Channel Channel `json:"channel"`

	OOH     *OOHExtension     `json:"ooh,omitempty"`
	TV      *TVExtension      `json:"tv,omitempty"`
	Radio   *RadioExtension   `json:"radio,omitempty"`
	Print   *PrintExtension   `json:"print,omitempty"`
	Display *DisplayExtension `json:"display,omitempty"`
	Social  *SocialExtension  `json:"social,omitempty"`
	Search  *SearchExtension  `json:"search,omitempty"`
}

type OOHExtension struct {
	Owner       string `json:"owner,omitempty"`
	PanelCount  int    `json:"panel_count"`
	Facing      string `json:"facing,omitempty"`
	Illuminated bool   `json:"illuminated"`
}

type TVExtension struct {
	Program    string `json:"program,omitempty"`
	Daypart    string `json:"daypart,omitempty"`
	SpotLength int    `json:"spot_length"`
}

type RadioExtension struct {
	Station    string `json:"station,omitempty"`
	Daypart    string `json:"daypart,omitempty"`
	SpotLength int    `json:"spot_length"`
}

type PrintExtension struct {
	Publication   string `json:"publication,omitempty"`
	InsertionSize string `json:"insertion_size,omitempty"`
	Insertions    int    `json:"insertions"`
}

type DisplayExtension struct {
	AdFormat          string  `json:"ad_format,omitempty"`
	Placement         string  `json:"placement,omitempty"`
	ViewabilityTarget float64 `json:"viewability_target"`
}

type SocialExtension struct {
	Platform  string `json:"platform,omitempty"`
	Objective string `json:"objective,omitempty"`
}

type SearchExtension struct {
	MatchType    string `json:"match_type,omitempty"`
	KeywordGroup string `json:"keyword_group,omitempty"`
}

// NewExtension returns an empty extension for the given channel with the
// matching variant allocated. Channels without a dedicated variant get a
// bare tag (their fields resolve through the generic path only).
func NewExtension(ch Channel) *ChannelExtension {
	ext := &ChannelExtension{Channel: ch}
	switch ch {
	case ChannelOOH, ChannelDOOH:
		ext.OOH = &OOHExtension{}
	case ChannelTV, ChannelCinema:
		ext.TV = &TVExtension{}
	case ChannelRadio, ChannelAudio, ChannelPodcast:
		ext.Radio = &RadioExtension{}
	case ChannelPrint:
		ext.Print = &PrintExtension{}
	case ChannelDisplay, ChannelVideo, ChannelNative:
		ext.Display = &DisplayExtension{}
	case ChannelSocial, ChannelInfluencer, ChannelEmail:
		ext.Social = &SocialExtension{}
	case ChannelSearch:
		ext.Search = &SearchExtension{}
	}
	return ext
}

func (e *ChannelExtension) clone() *ChannelExtension {
	if e == nil {
		return nil
	}
	out := &ChannelExtension{Channel: e.Channel}
	if e.OOH != nil {
		v := *e.OOH
		out.OOH = &v
	}
	if e.TV != nil {
		v := *e.TV
		out.TV = &v
	}
	if e.Radio != nil {
		v := *e.Radio
		out.Radio = &v
	}
	if e.Print != nil {
		v := *e.Print
		out.Print = &v
	}
	if e.Display != nil {
		v := *e.Display
		out.Display = &v
	}
	if e.Social != nil {
		v := *e.Social
		out.Social = &v
	}
	if e.Search != nil {
		v := *e.Search
		out.Search = &v
	}
	return out
}
