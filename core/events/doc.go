// Package events defines the typed playback event contract.
//
// Event kinds are grouped by receiver-facing namespaces:
//
//   - turn_state.*
//   - playback.*
//   - avatar.*
//
// turn_state events
//
//   - TurnSubmitted (turn_state.submitted): user message sent to the backend.
//   - TurnReplied (turn_state.replied): backend reply accepted; carries the
//     bot text and optional audio reference.
//   - TurnFailed (turn_state.failed): backend call failed; the turn is not
//     played.
//   - TurnCancelled (turn_state.cancelled): playback of the turn was
//     cancelled.
//
// playback events
//
//   - PlaybackSessionStarted (playback.session_started): a playback session
//     was created for a turn.
//   - PlaybackStatusChanged (playback.status_changed): session status
//     transition (attempting, playing, completed, failed, cancelled).
//   - PlaybackSourceFailed (playback.source_failed): one speech source
//     failed; the session may fall forward to the next one.
//   - PlaybackStarted (playback.started): output became audible, the avatar
//     is talking.
//   - PlaybackEnded (playback.ended): audible output ended, the avatar is
//     idle.
//
// avatar events
//
//   - AvatarLoaded (avatar.loaded): the renderer reported a successful load.
//   - AvatarLoadFailed (avatar.load_failed): the renderer failed to load; the
//     fallback indicator is used from now on.
package events
