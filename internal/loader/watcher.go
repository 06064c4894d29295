package loader

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"dogwalk-server/pkg/logger"
)

// Watch следит за файлом конфига и на каждое успешное перечитывание
// вызывает onReload. Битый конфиг не применяется: сервер продолжает
// жить со старыми настройками, проблема уходит в лог.
//
// Следим за каталогом, а не за самим файлом: редакторы и деплой обычно
// подменяют файл через rename, и подписка на inode теряется.
func Watch(ctx context.Context, path string, onReload func(*Settings)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		base := filepath.Base(path)

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != base {
					continue
				}
				if event.Op&fsnotify.Write != fsnotify.Write &&
					event.Op&fsnotify.Create != fsnotify.Create {
					continue
				}

				settings, err := Load(path)
				if err != nil {
					logger.Log.WithError(err).Warn("config reload failed, keeping current tuning")
					continue
				}
				logger.Log.WithField("config", path).Info("config reloaded")
				onReload(settings)

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Log.WithError(err).Warn("config watcher error")
			}
		}
	}()

	return nil
}
