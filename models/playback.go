package models

import (
	"encoding/json"
	"net/url"
)

// HlsSourceType is the media type of the playable HLS manifest entry in a
// playback descriptor's source list.
const HlsSourceType = "html5/application/vnd.apple.mpegurl"

type PolicyType string

const (
	PolicyType_Public              PolicyType = "public"
	PolicyType_LitSigningCondition PolicyType = "lit_signing_condition"
)

// PlaybackPolicy is the access policy attached to an asset at ingest. The
// access control conditions are an opaque, network-specific expression that is
// never evaluated locally, only forwarded to the access-control network.
type PlaybackPolicy struct {
	Type                           PolicyType      `json:"type"`
	UnifiedAccessControlConditions json.RawMessage `json:"unifiedAccessControlConditions,omitempty"`
	ResourceId                     ResourceId      `json:"resourceId,omitempty"`
}

// ResourceId correlates a condition set to a specific content item.
type ResourceId map[string]string

func (p *PlaybackPolicy) Gated() bool {
	return p != nil && p.Type == PolicyType_LitSigningCondition
}

// ConditionChains returns the chains named by the policy's conditions, so
// that a credential can be signed for each of them. Only the "chain" field of
// each condition is read; the condition logic itself stays opaque. Policies
// that name no chains get the default chain.
func (p *PlaybackPolicy) ConditionChains() []string {
	chains := []string{}
	seen := map[string]bool{}
	var conditions []struct {
		Chain string `json:"chain"`
	}
	if p != nil && len(p.UnifiedAccessControlConditions) > 0 {
		if err := json.Unmarshal(p.UnifiedAccessControlConditions, &conditions); err == nil {
			for _, condition := range conditions {
				if len(condition.Chain) > 0 && !seen[condition.Chain] {
					seen[condition.Chain] = true
					chains = append(chains, condition.Chain)
				}
			}
		}
	}
	if len(chains) == 0 {
		chains = append(chains, DefaultChain)
	}
	return chains
}

type Source struct {
	Hrn  string `json:"hrn,omitempty"`
	Type string `json:"type"`
	Url  string `json:"url"`
}

type PlaybackMeta struct {
	PlaybackPolicy *PlaybackPolicy `json:"playbackPolicy,omitempty"`
	Source         []Source        `json:"source"`
}

// PlaybackInfo is the playback descriptor returned by the media host for a
// playback id: the playable sources plus the access policy.
type PlaybackInfo struct {
	Type string       `json:"type"`
	Meta PlaybackMeta `json:"meta"`
}

// HlsSource returns the first source carrying the HLS manifest media type, or
// nil if the asset has no playable HLS rendition yet.
func (pi *PlaybackInfo) HlsSource() *Source {
	if pi == nil {
		return nil
	}
	for idx, source := range pi.Meta.Source {
		if source.Type == HlsSourceType {
			return &pi.Meta.Source[idx]
		}
	}
	return nil
}

// HlsUrl returns the parsed URL of the HLS source. A missing or unparsable
// URL means the asset is not ready to play, which is not an error.
func (pi *PlaybackInfo) HlsUrl() *url.URL {
	source := pi.HlsSource()
	if source == nil {
		return nil
	}
	parsed, err := url.Parse(source.Url)
	if err != nil || len(parsed.Host) == 0 {
		return nil
	}
	return parsed
}

func (pi *PlaybackInfo) Policy() *PlaybackPolicy {
	if pi == nil {
		return nil
	}
	return pi.Meta.PlaybackPolicy
}
