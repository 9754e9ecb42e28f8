// ABOUTME: Package cdaudio redirects CD audio commands to track files
// ABOUTME: A separate control surface from the channel mixer
// Package cdaudio emulates a CD drive's audio commands using ripped tracks
// named track01.flac, track02.mp3 or track03.wav. Headerless track04.raw
// files hold CD-DA as read off the disc. Positions and durations are in
// 75 fps CD frames.
package cdaudio
