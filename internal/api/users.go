package api

import (
	"context"
	"fmt"

	"dismoment/internal/models"
)

// ProfileUpdate is the edit-profile payload. A nil Avatar keeps the current image.
type ProfileUpdate struct {
	UserID   string
	Username string
	Email    string
	Name     string
	Bio      string
	Avatar   *Upload
}

// FollowUser makes viewerID follow targetID and returns the updated target.
func (a *Adapter) FollowUser(ctx context.Context, viewerID, targetID string) (models.User, error) {
	u, err := a.setFollow(ctx, viewerID, targetID, true)
	return u, a.done("follow_user", err)
}

// UnfollowUser reverses FollowUser.
func (a *Adapter) UnfollowUser(ctx context.Context, viewerID, targetID string) (models.User, error) {
	u, err := a.setFollow(ctx, viewerID, targetID, false)
	return u, a.done("unfollow_user", err)
}

// setFollow writes the target's followers first, then the viewer's following.
// If the second write fails the first one is reverted.
func (a *Adapter) setFollow(ctx context.Context, viewerID, targetID string, follow bool) (models.User, error) {
	if viewerID == targetID {
		return models.User{}, ErrSelfFollow
	}
	op := "follow"
	if !follow {
		op = "unfollow"
	}

	target, err := a.GetUserByID(ctx, targetID)
	if err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}
	viewer, err := a.GetUserByID(ctx, viewerID)
	if err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	followers, following := withoutID(target.Followers, viewerID), withoutID(viewer.Following, targetID)
	if follow {
		followers, following = withID(target.Followers, viewerID), withID(viewer.Following, targetID)
	}

	doc, err := a.be.UpdateDocument(ctx, a.col.DatabaseID, a.col.Users, targetID, map[string]any{"followers": followers})
	if err != nil {
		return models.User{}, fmt.Errorf("%s: update followers of %q: %w", op, targetID, err)
	}

	if _, err := a.be.UpdateDocument(ctx, a.col.DatabaseID, a.col.Users, viewerID, map[string]any{"following": following}); err != nil {
		cause := fmt.Errorf("update following of %q: %w", viewerID, err)
		cctx, cancel := compensationContext(ctx)
		defer cancel()
		if _, rerr := a.be.UpdateDocument(cctx, a.col.DatabaseID, a.col.Users, targetID, map[string]any{"followers": target.Followers}); rerr != nil {
			return models.User{}, &CompensationError{
				Op:         op,
				Resource:   "followers of user " + targetID,
				Cause:      cause,
				CleanupErr: rerr,
			}
		}
		return models.User{}, fmt.Errorf("%s: %w", op, cause)
	}

	return userFromDoc(doc)
}

// EditProfile uploads an optional new avatar, then updates the profile document.
// A new avatar is deleted again if the update fails.
func (a *Adapter) EditProfile(ctx context.Context, upd ProfileUpdate) (models.User, error) {
	data := map[string]any{
		"username": upd.Username,
		"email":    upd.Email,
		"name":     upd.Name,
		"bio":      upd.Bio,
	}

	var avatar *models.File
	if upd.Avatar != nil {
		f, err := a.UploadFile(ctx, *upd.Avatar)
		if err != nil {
			return models.User{}, a.done("edit_profile", fmt.Errorf("edit profile: %w", err))
		}
		imageURL, err := a.GetFilePreview(f.ID)
		if err != nil {
			return models.User{}, a.done("edit_profile", a.undoUpload(ctx, "edit profile", f, err))
		}
		data["imageUrl"] = imageURL
		data["imageId"] = f.ID
		avatar = &f
	}

	doc, err := a.be.UpdateDocument(ctx, a.col.DatabaseID, a.col.Users, upd.UserID, data)
	if err != nil {
		if avatar != nil {
			return models.User{}, a.done("edit_profile", a.undoUpload(ctx, "edit profile", *avatar, err))
		}
		return models.User{}, a.done("edit_profile", fmt.Errorf("edit profile: %w", err))
	}

	u, err := userFromDoc(doc)
	return u, a.done("edit_profile", err)
}
