package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Profile is the per-deployment static channel configuration used when neither
// the catalog nor the metadata API yields a channel.
type Profile struct {
	DefaultChannelURL string `yaml:"defaultChannelUrl"`
	ProfileAvatar     string `yaml:"profileAvatar"`
	ChannelHandle     string `yaml:"channelHandle"`
}

// DefaultProfile returns the built-in profile.
func DefaultProfile() Profile {
	return Profile{
		DefaultChannelURL: "https://www.youtube.com/@GamingBricks-67",
		ProfileAvatar:     "/assets/img/profile.jpg",
		ChannelHandle:     "@GamingBricks-67",
	}
}

// LoadProfile reads a YAML profile from path. Blank fields keep their defaults.
// An empty path returns DefaultProfile.
func LoadProfile(path string) (Profile, error) {
	p := DefaultProfile()
	if path == "" {
		return p, nil
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return p, fmt.Errorf("profile: %w", err)
	}
	var in Profile
	if err := yaml.Unmarshal(data, &in); err != nil {
		return p, fmt.Errorf("profile %s: %w", path, err)
	}
	if in.DefaultChannelURL != "" {
		p.DefaultChannelURL = in.DefaultChannelURL
	}
	if in.ProfileAvatar != "" {
		p.ProfileAvatar = in.ProfileAvatar
	}
	if in.ChannelHandle != "" {
		p.ChannelHandle = in.ChannelHandle
	}
	return p, nil
}
