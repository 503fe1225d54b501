package events

const (
	// KindAvatarLoaded identifies a successful avatar renderer load.
	KindAvatarLoaded Kind = "avatar.loaded"
	// KindAvatarLoadFailed identifies an avatar renderer load failure.
	KindAvatarLoadFailed Kind = "avatar.load_failed"
)

// AvatarLoaded marks a successful avatar renderer load.
type AvatarLoaded struct{ Base }

// NewAvatarLoaded creates an avatar loaded event.
func NewAvatarLoaded() AvatarLoaded {
	return AvatarLoaded{Base: NewBase(KindAvatarLoaded)}
}

// AvatarLoadFailed marks an avatar renderer load failure.
type AvatarLoadFailed struct {
	Base
	Err error
}

// NewAvatarLoadFailed creates an avatar load failed event.
func NewAvatarLoadFailed(err error) AvatarLoadFailed {
	return AvatarLoadFailed{Base: NewBase(KindAvatarLoadFailed), Err: err}
}
