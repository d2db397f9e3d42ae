package sqlinline

const QInsertSong = `--sql e9e5c579-4fdb-4657-aab6-daa67e1b6571
insert into songs (id, user_id, story, mode, style, created_at, updated_at)
values ($1::text, $2::text, $3::text, $4::text, $5::text, now(), now())
returning created_at;
`

const QSelectSongByID = `--sql 7cea34a3-c347-483b-b0b0-8ecf8e1bb6cb
select id, user_id, story, mode, style, preview_url, full_url, video_url, is_purchased, coalesce(purchase_transaction_id, ''), created_at, updated_at
from songs
where id = $1::text
limit 1;
`

const QMarkSongPurchased = `--sql 3124a422-affb-466c-b95b-3ea346b7c288
update songs
set is_purchased = true,
    purchase_transaction_id = $2::text,
    user_id = coalesce(nullif($3::text, ''), user_id),
    updated_at = now()
where id = $1::text
  and is_purchased = false
returning id;
`

const QSongExists = `--sql fd5da011-a4fa-4aae-afc8-d9d05dc1c5be
select exists(select 1 from songs where id = $1::text);
`

const QSetSongMedia = `--sql 3d0af0b4-bd2c-445c-b187-83eddc12294d
update songs
set preview_url = coalesce(nullif($2::text, ''), preview_url),
    full_url = coalesce(nullif($3::text, ''), full_url),
    video_url = coalesce(nullif($4::text, ''), video_url),
    updated_at = now()
where id = $1::text;
`
