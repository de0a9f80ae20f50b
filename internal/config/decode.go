package config

import (
	"fmt"
	"reflect"

	"github.com/go-viper/mapstructure/v2"
)

// ChannelIDs is the normalized form of watch_channel_ids. The config file may
// give a single id or a list; the rest of the program only sees a list.
type ChannelIDs []string

// AuthorIDs is the normalized form of a channel entry's authors list.
type AuthorIDs []string

var (
	channelIDsType = reflect.TypeOf(ChannelIDs(nil))
	authorIDsType  = reflect.TypeOf(AuthorIDs(nil))
)

// ChannelIDsHookFunc decodes a string or a list of strings into ChannelIDs.
// Numbers are rejected: snowflake ids do not survive float decoding.
func ChannelIDsHookFunc() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if to != channelIDsType {
			return data, nil
		}
		ids, err := decodeIDs("watch_channel_ids", "channel id", data)
		return ChannelIDs(ids), err
	}
}

// AuthorIDsHookFunc decodes authors the same way as ChannelIDsHookFunc. A
// JSON number would otherwise be rounded by the float decode and the author
// would silently never match.
func AuthorIDsHookFunc() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if to != authorIDsType {
			return data, nil
		}
		ids, err := decodeIDs("authors", "author id", data)
		return AuthorIDs(ids), err
	}
}

func decodeIDs(field, what string, data any) ([]string, error) {
	switch v := data.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{v}, nil
	case []string:
		return v, nil
	case []any:
		ids := make([]string, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s[%d]: %s must be a string, got %T", field, i, what, item)
			}
			ids = append(ids, s)
		}
		return ids, nil
	default:
		return nil, fmt.Errorf("%s: %s must be a string, got %T", field, what, data)
	}
}
