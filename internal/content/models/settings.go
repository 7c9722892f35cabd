package models

import (
	"encoding/json"
	"maps"
)

const (
	SocialFacebook = "facebook"
	SocialYouTube  = "youtube"
	SocialTwitter  = "twitter"
)

// SocialLinks maps a platform name to a profile URL.
type SocialLinks map[string]string

// AppSettings is the singleton configuration document. Fields the code
// does not know about are kept in Extra and written back unchanged.
type AppSettings struct {
	ContactPhone  string
	AdminUser     string
	AdminPassHash string
	SocialLinks   SocialLinks
	Extra         map[string]json.RawMessage
}

const (
	keyContactPhone  = "contactPhone"
	keyAdminUser     = "adminUser"
	keyAdminPassHash = "adminPassHash"
	keySocialLinks   = "socialLinks"
)

// SettingsKeys are the declared top-level fields.
var SettingsKeys = []string{keyContactPhone, keyAdminUser, keyAdminPassHash, keySocialLinks}

type knownSettings struct {
	ContactPhone  string      `json:"contactPhone"`
	AdminUser     string      `json:"adminUser"`
	AdminPassHash string      `json:"adminPassHash"`
	SocialLinks   SocialLinks `json:"socialLinks"`
}

func (s AppSettings) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.Extra)+len(SettingsKeys))
	for k, v := range s.Extra {
		out[k] = v
	}
	links := s.SocialLinks
	if links == nil {
		links = SocialLinks{}
	}
	out[keyContactPhone] = s.ContactPhone
	out[keyAdminUser] = s.AdminUser
	out[keyAdminPassHash] = s.AdminPassHash
	out[keySocialLinks] = links
	return json.Marshal(out)
}

func (s *AppSettings) UnmarshalJSON(data []byte) error {
	var known knownSettings
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for _, k := range SettingsKeys {
		delete(all, k)
	}
	*s = AppSettings{
		ContactPhone:  known.ContactPhone,
		AdminUser:     known.AdminUser,
		AdminPassHash: known.AdminPassHash,
		SocialLinks:   known.SocialLinks,
	}
	if len(all) > 0 {
		s.Extra = all
	}
	return nil
}

// Clone returns a deep copy.
func (s AppSettings) Clone() AppSettings {
	out := s
	out.SocialLinks = maps.Clone(s.SocialLinks)
	out.Extra = maps.Clone(s.Extra)
	return out
}

// PublicSettings is the view served to anonymous visitors.
type PublicSettings struct {
	ContactPhone string      `json:"contactPhone"`
	SocialLinks  SocialLinks `json:"socialLinks"`
}

func (s AppSettings) Public() PublicSettings {
	links := SocialLinks{}
	for k, v := range s.SocialLinks {
		if v != "" {
			links[k] = v
		}
	}
	return PublicSettings{ContactPhone: s.ContactPhone, SocialLinks: links}
}
