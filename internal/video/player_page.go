package video

import (
	"html/template"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/teslastreamer/teslastreamer/internal/httputil"
)

const missingUserMessage = "Scan QR from bot to log in."

var playerPageTemplate = template.Must(template.New("player").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>My Tesla Videos</title>
    <style nonce="{{.Nonce}}">
        :root {
            --brand-color: #E50914;
            --background-color: #141414;
            --text-color: #e5e5e5;
        }
        * { box-sizing: border-box; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
            background: var(--background-color);
            color: var(--text-color);
            margin: 0;
            padding: 20px;
            min-height: 100vh;
            display: flex;
            justify-content: center;
            align-items: center;
        }
        .container { width: 100%; max-width: 1200px; }
        .video-wrapper {
            background: #000;
            border-radius: 8px;
            padding: 20px;
            text-align: center;
        }
        .video-title { font-size: 1.8rem; margin: 0 0 15px; word-wrap: break-word; }
        .canvas-container { position: relative; width: 100%; }
        #player_canvas { width: 100%; height: auto; border-radius: 5px; cursor: pointer; background: #000; }
        .play-button-overlay {
            position: absolute;
            top: 50%;
            left: 50%;
            transform: translate(-50%, -50%);
            width: 80px;
            height: 80px;
            background: rgba(229, 9, 20, 0.7);
            border-radius: 50%;
            display: flex;
            justify-content: center;
            align-items: center;
            pointer-events: none;
            transition: opacity 0.2s ease;
        }
        .play-button-overlay svg { width: 40px; height: 40px; fill: #fff; }
        .info-text { text-align: center; margin-top: 40px; font-size: 1.2rem; }
        .error { color: var(--brand-color); }
        .hidden { display: none; }
    </style>
</head>
<body>
    <div class="container" id="video-content"></div>
    <script nonce="{{.Nonce}}">
        (function () {
            var userId = {{.UserID}};
            var content = document.getElementById('video-content');

            function info(text, isError) {
                var p = document.createElement('p');
                p.className = isError ? 'info-text error' : 'info-text';
                p.textContent = text;
                content.replaceChildren(p);
            }

            // The car browser cannot decode every stream directly, so frames
            // are painted onto a canvas from a hidden video element.
            function setupCanvasPlayer(video, canvas, overlay) {
                var context = canvas.getContext('2d');

                video.addEventListener('loadedmetadata', function () {
                    canvas.width = canvas.offsetWidth;
                    canvas.height = canvas.width / (video.videoWidth / video.videoHeight);
                    context.drawImage(video, 0, 0, canvas.width, canvas.height);
                });

                function drawFrame() {
                    if (!video.paused && !video.ended) {
                        context.drawImage(video, 0, 0, canvas.width, canvas.height);
                        requestAnimationFrame(drawFrame);
                    }
                }

                video.addEventListener('play', function () {
                    overlay.style.opacity = '0';
                    drawFrame();
                });
                video.addEventListener('pause', function () {
                    overlay.style.opacity = '1';
                });
                canvas.addEventListener('click', function () {
                    if (video.paused) {
                        video.play();
                    } else {
                        video.pause();
                    }
                });
            }

            function render(v) {
                var wrapper = document.createElement('div');
                wrapper.className = 'video-wrapper';

                var title = document.createElement('h2');
                title.className = 'video-title';
                title.textContent = v.title.replace(/\+/g, ' ');

                var holder = document.createElement('div');
                holder.className = 'canvas-container';
                var canvas = document.createElement('canvas');
                canvas.id = 'player_canvas';
                var overlay = document.createElement('div');
                overlay.className = 'play-button-overlay';
                overlay.innerHTML = '<svg viewBox="0 0 24 24"><path d="M8 5v14l11-7z"/></svg>';
                holder.appendChild(canvas);
                holder.appendChild(overlay);

                var video = document.createElement('video');
                video.className = 'hidden';
                video.preload = 'metadata';
                video.src = '/proxy/video/' + encodeURIComponent(v.id);

                wrapper.appendChild(title);
                wrapper.appendChild(holder);
                wrapper.appendChild(video);
                content.replaceChildren(wrapper);
                setupCanvasPlayer(video, canvas, overlay);
            }

            fetch('/videos?user_id=' + encodeURIComponent(userId))
                .then(function (r) { return r.json(); })
                .then(function (videos) {
                    if (videos.length === 0) {
                        info('No videos added yet. Send a video URL to the Telegram bot.', false);
                        return;
                    }
                    render(videos[0]);
                })
                .catch(function (err) {
                    info('Error loading video: ' + err.message + '. Please try again.', true);
                });
        })();
    </script>
</body>
</html>`))

type playerPageData struct {
	UserID string
	Nonce  string
}

// PlayerPage handles GET / and GET /login?user_id=.
func (h *Handler) PlayerPage(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFromQuery(r)
	if !ok {
		httputil.WriteText(w, http.StatusBadRequest, missingUserMessage)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := playerPageTemplate.Execute(w, playerPageData{
		UserID: strconv.FormatInt(ownerID, 10),
		Nonce:  httputil.NonceFromContext(r.Context()),
	}); err != nil {
		slog.Error("video: failed to render player page", "user_id", ownerID, "error", err)
	}
}
