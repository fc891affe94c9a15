package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"drive/api/internal/access"
	"drive/api/internal/authpw"
	"drive/api/internal/blob"
	"drive/api/internal/config"
	"drive/api/internal/docsvc"
	"drive/api/internal/search"
	"drive/api/internal/session"
	"drive/api/internal/store"
)

// docMimeType marks DOC items; their content lives in the external
// document service, not the blob store.
const docMimeType = "application/x-drive-doc"

const defaultSearchLimit = 20
const maxSearchLimit = 50

// DocStore is the slice of the external document service the drive uses.
type DocStore interface {
	Create(ctx context.Context, id, title, content string) (docsvc.Document, error)
	Get(ctx context.Context, id string) (docsvc.Document, error)
	Update(ctx context.Context, id string, title, content *string) (docsvc.Document, error)
	Delete(ctx context.Context, id string) error
}

type Service struct {
	cfg      config.Config
	store    store.Store
	blobs    blob.Storage
	docs     DocStore
	search   *search.Service
	sessions session.Store
	pw       *authpw.Service
}

func New(cfg config.Config, st store.Store, blobs blob.Storage, docs DocStore, searchSvc *search.Service, sessions session.Store) *Service {
	return &Service{
		cfg:      cfg,
		store:    st,
		blobs:    blobs,
		docs:     docs,
		search:   searchSvc,
		sessions: sessions,
		pw:       authpw.NewService(st),
	}
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// ItemView is the JSON shape of an item returned to clients.
type ItemView struct {
	ID        string    `json:"id"`
	ParentID  *string   `json:"parentId"`
	OwnerID   string    `json:"ownerId"`
	Type      string    `json:"type"`
	Name      string    `json:"name"`
	MimeType  string    `json:"mimeType,omitempty"`
	SizeBytes *int64    `json:"sizeBytes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func itemView(item store.Item) ItemView {
	return ItemView{
		ID:        item.ID,
		ParentID:  item.ParentID,
		OwnerID:   item.OwnerUserID,
		Type:      string(item.Type),
		Name:      item.Name,
		MimeType:  item.MimeType,
		SizeBytes: item.SizeBytes,
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
	}
}

func itemViews(items []store.Item) []ItemView {
	views := make([]ItemView, 0, len(items))
	for _, item := range items {
		views = append(views, itemView(item))
	}
	return views
}

// DocView pairs a DOC item with its external content.
type DocView struct {
	Item    ItemView `json:"item"`
	Content string   `json:"content"`
	Version int64    `json:"version"`
}

// SharedItemView is an item in the "shared with me" listing plus the role
// the grant carries.
type SharedItemView struct {
	ItemView
	Role string `json:"role"`
}

// PresignView is the response for a client-side upload.
type PresignView struct {
	Item        ItemView `json:"item"`
	UploadURL   string   `json:"uploadUrl"`
	Method      string   `json:"method"`
	ContentType string   `json:"contentType"`
	ExpiresIn   int      `json:"expiresIn"`
}

func getItemOr404(ctx context.Context, st store.Store, id string) (store.Item, error) {
	item, err := st.GetItem(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Item{}, notFoundErr("ITEM_NOT_FOUND", "Item not found")
	}
	if err != nil {
		return store.Item{}, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// checkCreateParent validates the optional parent of a new item: it must
// exist, be a folder, and be writable by the caller. A nil parent means a
// root item, which anyone may create for themselves.
func checkCreateParent(ctx context.Context, st store.Store, userID string, parentID *string) error {
	if parentID == nil {
		return nil
	}
	parent, err := st.GetItem(ctx, *parentID)
	if errors.Is(err, sql.ErrNoRows) {
		return notFoundErr("PARENT_NOT_FOUND", "Parent folder not found")
	}
	if err != nil {
		return fmt.Errorf("get parent: %w", err)
	}
	if parent.Type != store.TypeFolder {
		return badRequestErr("PARENT_NOT_FOLDER", "Parent must be a folder")
	}
	level, err := access.Resolve(ctx, st, userID, parent.ID)
	if err != nil {
		return err
	}
	if !level.CanWrite() {
		return forbiddenErr("Editor access to the parent folder is required")
	}
	return nil
}

// ListRoot returns the caller's own root items.
func (s *Service) ListRoot(ctx context.Context, userID string) ([]ItemView, error) {
	items, err := s.store.ListRootChildren(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list root: %w", err)
	}
	return itemViews(items), nil
}

// ListChildren lists the contents of a folder the caller can view. Each
// child is checked individually: a collaborator can create items they own
// inside a shared folder, and access to those does not follow from access
// to the folder.
func (s *Service) ListChildren(ctx context.Context, userID, folderID string) ([]ItemView, error) {
	var views []ItemView
	err := s.store.WithTx(ctx, func(st store.Store) error {
		folder, err := getItemOr404(ctx, st, folderID)
		if err != nil {
			return err
		}
		if folder.Type != store.TypeFolder {
			return notFoundErr("ITEM_NOT_FOUND", "Folder not found")
		}
		level, err := access.Resolve(ctx, st, userID, folder.ID)
		if err != nil {
			return err
		}
		if !level.CanRead() {
			return forbiddenErr("Viewer access to the folder is required")
		}
		children, err := st.ListChildren(ctx, folder.ID)
		if err != nil {
			return fmt.Errorf("list children: %w", err)
		}
		views = make([]ItemView, 0, len(children))
		for _, child := range children {
			childLevel, err := access.Resolve(ctx, st, userID, child.ID)
			if err != nil {
				return err
			}
			if childLevel.CanRead() {
				views = append(views, itemView(child))
			}
		}
		return nil
	})
	return views, err
}

// CreateFolder creates a folder under an optional parent.
func (s *Service) CreateFolder(ctx context.Context, userID string, parentID *string, name string) (ItemView, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return ItemView{}, badRequestErr("NAME_REQUIRED", "Folder name is required")
	}

	item := store.Item{
		ID:          uuid.NewString(),
		OwnerUserID: userID,
		ParentID:    parentID,
		Type:        store.TypeFolder,
		Name:        name,
	}
	err := s.store.WithTx(ctx, func(st store.Store) error {
		if err := checkCreateParent(ctx, st, userID, parentID); err != nil {
			return err
		}
		if err := st.InsertItem(ctx, item); err != nil {
			return fmt.Errorf("insert folder: %w", err)
		}
		loaded, err := st.GetItem(ctx, item.ID)
		if err != nil {
			return fmt.Errorf("reload folder: %w", err)
		}
		item = loaded
		return nil
	})
	if err != nil {
		return ItemView{}, err
	}
	s.search.IndexItem(search.RecordFromItem(item))
	return itemView(item), nil
}

// CreateDoc creates a DOC item and its backing document in the external
// document service, both under the same id.
func (s *Service) CreateDoc(ctx context.Context, userID string, parentID *string, title string) (ItemView, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = "Untitled"
	}

	item := store.Item{
		ID:          uuid.NewString(),
		OwnerUserID: userID,
		ParentID:    parentID,
		Type:        store.TypeDoc,
		Name:        title,
		MimeType:    docMimeType,
	}
	err := s.store.WithTx(ctx, func(st store.Store) error {
		if err := checkCreateParent(ctx, st, userID, parentID); err != nil {
			return err
		}
		if err := st.InsertItem(ctx, item); err != nil {
			return fmt.Errorf("insert doc: %w", err)
		}
		// Inside the transaction so a document-service failure rolls the
		// metadata row back.
		if _, err := s.docs.Create(ctx, item.ID, title, ""); err != nil {
			return fmt.Errorf("create document: %w", err)
		}
		loaded, err := st.GetItem(ctx, item.ID)
		if err != nil {
			return fmt.Errorf("reload doc: %w", err)
		}
		item = loaded
		return nil
	})
	if err != nil {
		return ItemView{}, err
	}
	s.search.IndexItem(search.RecordFromItem(item))
	return itemView(item), nil
}

// GetDoc returns a DOC item together with its external content.
func (s *Service) GetDoc(ctx context.Context, userID, docID string) (DocView, error) {
	var item store.Item
	err := s.store.WithTx(ctx, func(st store.Store) error {
		var err error
		item, err = getItemOr404(ctx, st, docID)
		if err != nil {
			return err
		}
		if item.Type != store.TypeDoc {
			return notFoundErr("ITEM_NOT_FOUND", "Document not found")
		}
		level, err := access.Resolve(ctx, st, userID, item.ID)
		if err != nil {
			return err
		}
		if !level.CanRead() {
			return forbiddenErr("Viewer access is required")
		}
		return nil
	})
	if err != nil {
		return DocView{}, err
	}

	doc, err := s.docs.Get(ctx, docID)
	if docsvc.IsNotFound(err) {
		return DocView{}, notFoundErr("DOC_NOT_FOUND", "Document content not found")
	}
	if err != nil {
		return DocView{}, fmt.Errorf("get document: %w", err)
	}
	return DocView{Item: itemView(item), Content: doc.Content, Version: doc.Version}, nil
}

// UpdateDoc forwards a title and/or content change to the document
// service and bumps the item's updated_at. A new title renames the item.
func (s *Service) UpdateDoc(ctx context.Context, userID, docID string, title, content *string) (DocView, error) {
	if title == nil && content == nil {
		return DocView{}, badRequestErr("EMPTY_UPDATE", "Nothing to update")
	}
	// A blank title means no rename; the update still bumps updated_at.
	if title != nil {
		trimmed := strings.TrimSpace(*title)
		if trimmed == "" {
			title = nil
		} else {
			title = &trimmed
		}
	}

	var item store.Item
	var doc docsvc.Document
	err := s.store.WithTx(ctx, func(st store.Store) error {
		var err error
		item, err = getItemOr404(ctx, st, docID)
		if err != nil {
			return err
		}
		if item.Type != store.TypeDoc {
			return notFoundErr("ITEM_NOT_FOUND", "Document not found")
		}
		level, err := access.Resolve(ctx, st, userID, item.ID)
		if err != nil {
			return err
		}
		if !level.CanWrite() {
			return forbiddenErr("Editor access is required")
		}
		if title != nil {
			if err := st.RenameItem(ctx, item.ID, *title); err != nil {
				return fmt.Errorf("rename doc: %w", err)
			}
		} else if err := st.TouchItem(ctx, item.ID); err != nil {
			return fmt.Errorf("touch doc: %w", err)
		}
		doc, err = s.docs.Update(ctx, docID, title, content)
		if err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		item, err = st.GetItem(ctx, item.ID)
		if err != nil {
			return fmt.Errorf("reload doc: %w", err)
		}
		return nil
	})
	if err != nil {
		return DocView{}, err
	}
	s.search.IndexItem(search.RecordFromItem(item))
	return DocView{Item: itemView(item), Content: doc.Content, Version: doc.Version}, nil
}

// UploadFile creates a FILE item and streams its content to the blob
// store in one operation.
func (s *Service) UploadFile(ctx context.Context, userID string, parentID *string, name, contentType string, size int64, r io.Reader) (ItemView, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return ItemView{}, badRequestErr("NAME_REQUIRED", "File name is required")
	}

	id := uuid.NewString()
	item := store.Item{
		ID:          id,
		OwnerUserID: userID,
		ParentID:    parentID,
		Type:        store.TypeFile,
		Name:        name,
		MimeType:    contentType,
		SizeBytes:   &size,
		BlobKey:     "items/" + id,
	}
	err := s.store.WithTx(ctx, func(st store.Store) error {
		if err := checkCreateParent(ctx, st, userID, parentID); err != nil {
			return err
		}
		if err := st.InsertItem(ctx, item); err != nil {
			return fmt.Errorf("insert file: %w", err)
		}
		if err := s.blobs.Upload(ctx, item.BlobKey, r, size, contentType); err != nil {
			return fmt.Errorf("upload blob: %w", err)
		}
		loaded, err := st.GetItem(ctx, item.ID)
		if err != nil {
			return fmt.Errorf("reload file: %w", err)
		}
		item = loaded
		return nil
	})
	if err != nil {
		return ItemView{}, err
	}
	s.search.IndexItem(search.RecordFromItem(item))
	return itemView(item), nil
}

// PresignUpload creates a FILE item and returns a presigned PUT URL for
// the client to upload the content directly. Providers without presign
// support reject the request.
func (s *Service) PresignUpload(ctx context.Context, userID string, parentID *string, name, mimeType string, sizeBytes int64) (PresignView, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return PresignView{}, badRequestErr("NAME_REQUIRED", "File name is required")
	}

	id := uuid.NewString()
	item := store.Item{
		ID:          id,
		OwnerUserID: userID,
		ParentID:    parentID,
		Type:        store.TypeFile,
		Name:        name,
		MimeType:    mimeType,
		SizeBytes:   &sizeBytes,
		BlobKey:     "items/" + id,
	}
	var uploadURL string
	err := s.store.WithTx(ctx, func(st store.Store) error {
		if err := checkCreateParent(ctx, st, userID, parentID); err != nil {
			return err
		}
		url, err := s.blobs.PresignPut(ctx, item.BlobKey, s.cfg.PresignTTL)
		if errors.Is(err, blob.ErrPresignUnsupported) {
			return badRequestErr("PRESIGN_UNSUPPORTED", "Storage provider does not support presigned uploads")
		}
		if err != nil {
			return fmt.Errorf("presign upload: %w", err)
		}
		uploadURL = url
		if err := st.InsertItem(ctx, item); err != nil {
			return fmt.Errorf("insert file: %w", err)
		}
		loaded, err := st.GetItem(ctx, item.ID)
		if err != nil {
			return fmt.Errorf("reload file: %w", err)
		}
		item = loaded
		return nil
	})
	if err != nil {
		return PresignView{}, err
	}
	s.search.IndexItem(search.RecordFromItem(item))
	return PresignView{
		Item:        itemView(item),
		UploadURL:   uploadURL,
		Method:      "PUT",
		ContentType: mimeType,
		ExpiresIn:   int(s.cfg.PresignTTL.Seconds()),
	}, nil
}

// DownloadFile checks access and streams the file content from the blob
// store. The caller owns the returned body.
func (s *Service) DownloadFile(ctx context.Context, userID, fileID string) (ItemView, blob.Object, error) {
	var item store.Item
	err := s.store.WithTx(ctx, func(st store.Store) error {
		var err error
		item, err = getItemOr404(ctx, st, fileID)
		if err != nil {
			return err
		}
		if item.Type != store.TypeFile {
			return notFoundErr("ITEM_NOT_FOUND", "File not found")
		}
		level, err := access.Resolve(ctx, st, userID, item.ID)
		if err != nil {
			return err
		}
		if !level.CanRead() {
			return forbiddenErr("Viewer access is required")
		}
		return nil
	})
	if err != nil {
		return ItemView{}, blob.Object{}, err
	}

	obj, err := s.blobs.Download(ctx, item.BlobKey)
	if err != nil {
		return ItemView{}, blob.Object{}, fmt.Errorf("download blob: %w", err)
	}
	if obj.ContentType == "" {
		obj.ContentType = item.MimeType
	}
	return itemView(item), obj, nil
}

// MovePatch requests a reparent. A nil ParentID moves the item to the
// caller's root.
type MovePatch struct {
	ParentID *string
}

// PatchItem renames and/or moves an item. Renaming requires Editor on the
// item; moving additionally requires Editor on the destination folder and
// rejects destinations inside the item's own subtree. Both checks run in
// the same transaction as the write so a concurrent move cannot create a
// cycle.
func (s *Service) PatchItem(ctx context.Context, userID, itemID string, name *string, move *MovePatch) (ItemView, error) {
	if name == nil && move == nil {
		return ItemView{}, badRequestErr("EMPTY_UPDATE", "Nothing to update")
	}
	if name != nil && strings.TrimSpace(*name) == "" {
		return ItemView{}, badRequestErr("NAME_REQUIRED", "Name must not be blank")
	}

	var item store.Item
	err := s.store.WithTx(ctx, func(st store.Store) error {
		var err error
		item, err = getItemOr404(ctx, st, itemID)
		if err != nil {
			return err
		}
		level, err := access.Resolve(ctx, st, userID, item.ID)
		if err != nil {
			return err
		}
		if !level.CanWrite() {
			return forbiddenErr("Editor access is required")
		}

		if name != nil {
			if err := st.RenameItem(ctx, item.ID, strings.TrimSpace(*name)); err != nil {
				return fmt.Errorf("rename item: %w", err)
			}
		}

		if move != nil {
			if err := s.checkMoveDestination(ctx, st, userID, item, move.ParentID); err != nil {
				return err
			}
			if err := st.MoveItem(ctx, item.ID, move.ParentID); err != nil {
				return fmt.Errorf("move item: %w", err)
			}
		}

		item, err = st.GetItem(ctx, item.ID)
		if err != nil {
			return fmt.Errorf("reload item: %w", err)
		}
		return nil
	})
	if err != nil {
		return ItemView{}, err
	}
	s.search.IndexItem(search.RecordFromItem(item))
	return itemView(item), nil
}

func (s *Service) checkMoveDestination(ctx context.Context, st store.Store, userID string, item store.Item, parentID *string) error {
	if parentID == nil {
		return nil
	}
	if *parentID == item.ID {
		return badRequestErr("CYCLE", "Cannot move an item into itself")
	}
	dest, err := st.GetItem(ctx, *parentID)
	if errors.Is(err, sql.ErrNoRows) {
		return notFoundErr("PARENT_NOT_FOUND", "Destination folder not found")
	}
	if err != nil {
		return fmt.Errorf("get destination: %w", err)
	}
	if dest.Type != store.TypeFolder {
		return badRequestErr("PARENT_NOT_FOLDER", "Destination must be a folder")
	}
	level, err := access.Resolve(ctx, st, userID, dest.ID)
	if err != nil {
		return err
	}
	if !level.CanWrite() {
		return forbiddenErr("Editor access to the destination folder is required")
	}
	inSubtree, err := st.IsInSubtree(ctx, item.ID, dest.ID)
	if err != nil {
		return fmt.Errorf("check subtree: %w", err)
	}
	if inSubtree {
		return badRequestErr("CYCLE", "Cannot move an item into its own subtree")
	}
	return nil
}

// Share grants or updates a role on an item for another user. Only the
// owner may share.
func (s *Service) Share(ctx context.Context, userID, itemID, targetUsername, role string) error {
	shareRole := store.ShareRole(strings.ToUpper(strings.TrimSpace(role)))
	switch shareRole {
	case store.RoleViewer, store.RoleEditor, store.RoleOwner:
	default:
		return badRequestErr("INVALID_ROLE", "Role must be VIEWER, EDITOR, or OWNER")
	}

	return s.store.WithTx(ctx, func(st store.Store) error {
		item, err := getItemOr404(ctx, st, itemID)
		if err != nil {
			return err
		}
		if item.OwnerUserID != userID {
			return forbiddenErr("Only the owner can share an item")
		}
		target, err := st.GetUserByUsername(ctx, strings.TrimSpace(targetUsername))
		if errors.Is(err, sql.ErrNoRows) {
			return notFoundErr("USER_NOT_FOUND", "Target user not found")
		}
		if err != nil {
			return fmt.Errorf("get target user: %w", err)
		}
		if target.ID == item.OwnerUserID {
			return badRequestErr("SELF_SHARE", "Cannot share an item with its owner")
		}
		if err := st.UpsertShare(ctx, item.ID, target.ID, shareRole); err != nil {
			return fmt.Errorf("upsert share: %w", err)
		}
		return nil
	})
}

// ListSharedRoots lists the items directly shared with the caller.
// Grants whose item has since been deleted are skipped.
func (s *Service) ListSharedRoots(ctx context.Context, userID string) ([]SharedItemView, error) {
	grants, err := s.store.ListSharesForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list shares: %w", err)
	}
	views := make([]SharedItemView, 0, len(grants))
	for _, grant := range grants {
		item, err := s.store.GetItem(ctx, grant.ItemID)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get shared item: %w", err)
		}
		views = append(views, SharedItemView{ItemView: itemView(item), Role: string(grant.Role)})
	}
	return views, nil
}

// DeleteItem removes an item and its whole subtree. Deleting a missing
// item succeeds. External content (blobs, documents) is deleted best
// effort; failures are logged and never block metadata deletion, which
// proceeds deepest-first so a retry after a crash picks up where it
// stopped.
func (s *Service) DeleteItem(ctx context.Context, userID, itemID string) error {
	var nodes []store.SubtreeNode
	err := s.store.WithTx(ctx, func(st store.Store) error {
		_, err := st.GetItem(ctx, itemID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get item: %w", err)
		}
		level, err := access.Resolve(ctx, st, userID, itemID)
		if err != nil {
			return err
		}
		if !level.CanWrite() {
			return forbiddenErr("Editor access is required")
		}
		nodes, err = st.SubtreeDepthOrder(ctx, itemID)
		if err != nil {
			return fmt.Errorf("collect subtree: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, node := range nodes {
		switch node.Type {
		case store.TypeFile:
			if node.BlobKey != "" {
				if err := s.blobs.Delete(ctx, node.BlobKey); err != nil {
					log.Warn().Err(err).Str("item_id", node.ID).Msg("delete blob")
				}
			}
		case store.TypeDoc:
			if err := s.docs.Delete(ctx, node.ID); err != nil && !docsvc.IsNotFound(err) {
				log.Warn().Err(err).Str("item_id", node.ID).Msg("delete document")
			}
		}
		if err := s.store.DeleteItemByID(ctx, node.ID); err != nil {
			return fmt.Errorf("delete item %s: %w", node.ID, err)
		}
		s.search.DeleteItem(node.ID)
	}
	return nil
}

// Search runs a name search over the caller's owned items (default) or
// items shared with the caller, optionally narrowed to a folder subtree.
// Candidates come from a capped SQL pass (or the search index for the
// owned scope); access and scope ownership are always re-checked against
// the database before anything is returned, whatever produced the
// candidates.
func (s *Service) Search(ctx context.Context, userID, query, scope, folderID string, limit int) ([]ItemView, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []ItemView{}, nil
	}
	if limit < 1 {
		limit = 1
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}
	candidateCap := limit * 3

	var views []ItemView
	err := s.store.WithTx(ctx, func(st store.Store) error {
		var candidates []store.Item
		var err error
		switch {
		case folderID != "":
			folder, err := getItemOr404(ctx, st, folderID)
			if err != nil {
				return err
			}
			level, err := access.Resolve(ctx, st, userID, folder.ID)
			if err != nil {
				return err
			}
			if !level.CanRead() {
				return forbiddenErr("Viewer access to the folder is required")
			}
			candidates, err = st.SearchInSubtree(ctx, folder.ID, query, candidateCap)
			if err != nil {
				return fmt.Errorf("search subtree: %w", err)
			}
		case scope == "shared":
			candidates, err = st.SearchSharedVisible(ctx, userID, query, candidateCap)
			if err != nil {
				return fmt.Errorf("search shared: %w", err)
			}
		default:
			candidates, err = s.ownedCandidates(ctx, st, userID, query, candidateCap)
			if err != nil {
				return err
			}
		}

		views = make([]ItemView, 0, limit)
		for _, item := range candidates {
			level, err := access.Resolve(ctx, st, userID, item.ID)
			if err != nil {
				return err
			}
			if !level.CanRead() {
				continue
			}
			if scope == "shared" && item.OwnerUserID == userID {
				continue
			}
			if scope != "shared" && item.OwnerUserID != userID {
				continue
			}
			views = append(views, itemView(item))
			if len(views) == limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return views, nil
}

// ownedCandidates prefers the search index when it is available and
// falls back to the SQL LIKE pass otherwise.
func (s *Service) ownedCandidates(ctx context.Context, st store.Store, userID, query string, candidateCap int) ([]store.Item, error) {
	if ids, ok := s.search.OwnedCandidates(userID, query, candidateCap); ok {
		items := make([]store.Item, 0, len(ids))
		for _, id := range ids {
			item, err := st.GetItem(ctx, id)
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("get candidate: %w", err)
			}
			items = append(items, item)
		}
		return items, nil
	}
	items, err := st.SearchOwned(ctx, userID, query, candidateCap)
	if err != nil {
		return nil, fmt.Errorf("search owned: %w", err)
	}
	return items, nil
}
