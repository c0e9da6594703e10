package workitem

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// ContentChecksumKey is the checksum map entry covering the work item
// content itself; all other entries cover one attachment each.
const ContentChecksumKey = "WORK_ITEM"

// checksumPayload is the canonical serialization of all externally
// visible draft content. encoding/json emits map keys sorted, which
// keeps the hash independent of field insertion order.
type checksumPayload struct {
	Title        string                `json:"title"`
	Description  string                `json:"description"`
	Type         string                `json:"type"`
	Status       string                `json:"status"`
	CustomFields map[string]FieldValue `json:"custom_fields"`
	Links        []linkPayload         `json:"links"`
}

type linkPayload struct {
	Role      string   `json:"role"`
	TargetKey string   `json:"target_key"`
	Includes  Includes `json:"includes,omitempty"`
}

// Checksum computes the stable hash over all externally visible draft
// content. The result is a JSON object mapping ContentChecksumKey to
// the content hash and each attachment's base file name to its own
// hash, so attachment changes are detected independently.
//
// Equal drafts always hash equal, independent of processing order:
// links are sorted by role and target key, and custom
// fields are serialized in sorted key order. Administrative fields
// (external key, checksum) never contribute.
func (d *Draft) Checksum() string {
	fields := make(map[string]FieldValue, len(d.CustomFields))
	for name, value := range d.CustomFields {
		if name == FieldExternalKey || name == FieldChecksum {
			continue
		}
		fields[name] = value
	}

	links := make([]linkPayload, len(d.Links))
	for i, link := range d.Links {
		links[i] = linkPayload{
			Role:      link.Role,
			TargetKey: link.TargetKey,
			Includes:  link.Includes,
		}
	}
	sort.Slice(links, func(i, j int) bool {
		if links[i].Role != links[j].Role {
			return links[i].Role < links[j].Role
		}
		return links[i].TargetKey < links[j].TargetKey
	})

	payload, _ := json.Marshal(checksumPayload{
		Title:        d.Title,
		Description:  d.Description,
		Type:         d.Type,
		Status:       d.Status,
		CustomFields: fields,
		Links:        links,
	})

	checksums := map[string]string{ContentChecksumKey: hashBytes(payload)}
	for _, attachment := range d.Attachments {
		checksums[attachmentBaseName(attachment.FileName)] = attachment.contentChecksum()
	}

	result, _ := json.Marshal(checksums)
	return string(result)
}

// ContentChecksum extracts the content hash from a stored checksum
// value. Plain (pre-JSON) checksums are returned unchanged.
func ContentChecksum(checksum string) string {
	if checksum == "" || checksum[0] != '{' {
		return checksum
	}
	var checksums map[string]string
	if err := json.Unmarshal([]byte(checksum), &checksums); err != nil {
		return checksum
	}
	return checksums[ContentChecksumKey]
}

// AttachmentChecksums extracts the per-attachment hashes from a stored
// checksum value.
func AttachmentChecksums(checksum string) map[string]string {
	if checksum == "" || checksum[0] != '{' {
		return nil
	}
	var checksums map[string]string
	if err := json.Unmarshal([]byte(checksum), &checksums); err != nil {
		return nil
	}
	delete(checksums, ContentChecksumKey)
	return checksums
}

func (a Attachment) contentChecksum() string {
	payload, _ := json.Marshal(map[string]string{
		"title":     a.Title,
		"mime_type": a.MimeType,
		"file_name": a.FileName,
		"content":   hashBytes(a.Content),
	})
	return hashBytes(payload)
}

func attachmentBaseName(fileName string) string {
	for i := len(fileName) - 1; i >= 0; i-- {
		if fileName[i] == '.' {
			return fileName[:i]
		}
	}
	return fileName
}

func hashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
