package users

import (
	"bytes"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"bajaj/database"
	"bajaj/models"
	"bajaj/utils"

	"github.com/google/uuid"
)

const maxAvatarBytes = 5 << 20

var allowedAvatarExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// UpdateProfileHandler accepts a multipart form with an optional "name" field
// and an optional "profile" image file. The image is stored on R2 and the
// object key is saved on the user.
func UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	if err := r.ParseMultipartForm(maxAvatarBytes); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid form data"})
		return
	}

	db := database.DB
	var user models.User
	if err := db.First(&user, uid).Error; err != nil {
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "User not found"})
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	if name != "" && name != "null" {
		if err := utils.ValidateStruct(&struct {
			Name string `validate:"required,nameok"`
		}{Name: name}); err != nil {
			utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Name contains invalid characters"})
			return
		}
		user.Name = name
	}

	file, handler, err := r.FormFile("profile")
	if err == nil && handler != nil {
		defer file.Close()

		ext := strings.ToLower(filepath.Ext(handler.Filename))
		if !allowedAvatarExts[ext] {
			utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Image must be JPG, PNG or WEBP"})
			return
		}
		if handler.Size > maxAvatarBytes {
			utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Image must be 5MB or smaller"})
			return
		}

		// Sniff the real content type, extensions lie.
		head := make([]byte, 512)
		n, err := file.Read(head)
		if err != nil && err != io.EOF {
			utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Failed to read image"})
			return
		}
		detected := http.DetectContentType(head[:n])
		if !strings.HasPrefix(detected, "image/") {
			utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "File is not an image"})
			return
		}

		body, err := io.ReadAll(io.MultiReader(bytes.NewReader(head[:n]), file))
		if err != nil {
			utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Failed to read image"})
			return
		}

		objectName := "avatars/" + uuid.NewString() + ext
		if err := utils.UploadToS3(objectName, bytes.NewReader(body), int64(len(body))); err != nil {
			log.Printf("[profile] upload failed for user %d: %v", uid, err)
			utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Failed to upload image"})
			return
		}

		if user.Profile != nil && *user.Profile != "" {
			if err := utils.DeleteFromS3(*user.Profile); err != nil {
				log.Printf("[profile] failed to delete old avatar %s: %v", *user.Profile, err)
			}
		}
		user.Profile = &objectName
	}

	if err := db.Save(&user).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Failed to save profile"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Profile updated",
		Data: map[string]interface{}{
			"name":    user.Name,
			"profile": profileURL(user.Profile),
		},
	})
}

// GetProfileHandler returns the caller's name and a signed avatar URL.
func GetProfileHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}
	db := database.DB
	var user models.User
	if err := db.First(&user, uid).Error; err != nil {
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "User not found"})
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Profile retrieved",
		Data: map[string]interface{}{
			"name":    user.Name,
			"number":  user.Number,
			"profile": profileURL(user.Profile),
		},
	})
}

func profileURL(object *string) interface{} {
	if object == nil || *object == "" {
		return nil
	}
	url, err := utils.GenerateSignedURL(*object, 3600)
	if err != nil {
		log.Printf("[profile] sign url failed for %s: %v", *object, err)
		return nil
	}
	return url
}
