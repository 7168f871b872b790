// Package editor models the solo code editor: its persisted [State], the
// [Store] backends that hold it, a [Session] that edits and runs the
// buffer, an [Autosaver] that writes it back periodically, and a [Manager]
// keeping one session per user.
//
// # Persistence
//
// State is serialized as a JSON object with the fields code, language,
// theme, stdin and output, and is always overwritten wholesale. Loading
// never fails: missing or malformed data yields [Defaults].
//
//	repo := editor.NewRepository(editor.NewMemoryStore(), editor.DefaultKey, logger)
//	st := repo.Load(ctx)
//	st.Code = `print("hi")`
//	_ = repo.Save(ctx, st)
package editor
